package model

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	assert := assert.New(t)

	cases := map[string]Kind{
		"slope": Slope, "a": Slope, " Slope ": Slope,
		"intercept": Intercept, "b": Intercept,
		"stddev": StdDev, "s": StdDev, "sd": StdDev, "sigma": StdDev,
		"precision": Precision, "tau": Precision,
		"latent": Latent, "x": Latent,
	}
	for s, want := range cases {
		k, err := ParseKind(s)
		assert.NoError(err, s)
		assert.Equal(want, k, s)
	}

	_, err := ParseKind("rho")
	assert.True(errors.Is(err, ErrInvalidParameterRequest))

	assert.Equal("slope", Slope.String())
	assert.Equal("tau", Precision.Symbol())
	assert.Equal(1.0, Slope.Ideal())
	assert.Equal(0.0, StdDev.Ideal())
	assert.True(StdDev.PerModality())
	assert.False(Latent.PerModality())

	bad := Kind(99)
	assert.False(bad.Valid())
	assert.Equal("Kind(99)", bad.String())
	assert.Equal("?", bad.Symbol())
}

func TestParamNames(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("a[2]", ParamName(Slope, 2))
	assert.Equal("tau[10]", ParamName(Precision, 10))

	for _, k := range []Kind{Slope, Intercept, StdDev, Precision, Latent} {
		name := ParamName(k, 7)
		pk, idx, err := ParseParamName(name)
		assert.NoError(err, name)
		assert.Equal(k, pk)
		assert.Equal(7, idx)
	}

	for _, name := range []string{"", "a", "[1]", "a[0]", "a[-1]", "a[x]", "q[1]", "a[1"} {
		_, _, err := ParseParamName(name)
		assert.True(errors.Is(err, ErrInvalidParameterRequest), name)
	}
}
