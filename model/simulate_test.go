package model

import (
	"io/ioutil"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func simSpec() SimSpec {
	return SimSpec{
		Subjects:   500,
		Population: BetaDist(2, 5),
		Slope:      []float64{0.6, 0.7, 0.8},
		Intercept:  []float64{-0.1, 0.0, 0.1},
		StdDev:     []float64{0, 0.01, 0.05},
	}
}

func TestSimulate(t *testing.T) {
	assert := assert.New(t)

	obs, truth, err := Simulate(rand.NewPCG(42, 42), simSpec())
	assert.NoError(err)
	rows, cols := obs.Dims()
	assert.Equal(500, rows)
	assert.Equal(3, cols)
	assert.Equal(3, truth.Modalities())
	assert.Len(truth.Latent, 500)

	// No noise means the first modality is exactly linear
	for i, x := range truth.Latent {
		assert.InDelta(0.6*x-0.1, obs.At(i, 0), 1e-12)
	}

	// Residual spread matches the requested noise
	resid := make([]float64, rows)
	for i, x := range truth.Latent {
		resid[i] = obs.At(i, 2) - Mean(0.8, 0.1, x)
	}
	assert.InDelta(0.05, stat.StdDev(resid, nil), 0.01)

	// Same seed, same data
	again, _, err := Simulate(rand.NewPCG(42, 42), simSpec())
	assert.NoError(err)
	assert.Equal(obs.Column(1), again.Column(1))
}

func TestSimulateErrors(t *testing.T) {
	assert := assert.New(t)

	spec := simSpec()
	spec.Subjects = 0
	_, _, err := Simulate(rand.NewPCG(1, 1), spec)
	assert.True(errors.Is(err, ErrInvalidConfiguration))

	spec = simSpec()
	spec.Intercept = spec.Intercept[:2]
	_, _, err = Simulate(rand.NewPCG(1, 1), spec)
	assert.True(errors.Is(err, ErrDimensionMismatch))

	spec = simSpec()
	spec.StdDev[1] = -1
	_, _, err = Simulate(rand.NewPCG(1, 1), spec)
	assert.True(errors.Is(err, ErrInvalidConfiguration))

	spec = simSpec()
	spec.Population = BetaDist(0, 0)
	_, _, err = Simulate(rand.NewPCG(1, 1), spec)
	assert.Error(err)
}

func TestTruthError(t *testing.T) {
	assert := assert.New(t)

	truth := &Truth{
		Slope:     []float64{0.6, 0.8},
		Intercept: []float64{0, 0.1},
		StdDev:    []float64{0.01, 0.02},
	}

	v, err := truth.Value(Precision, 1)
	assert.NoError(err)
	assert.InDelta(10000.0, v, 1e-6)
	_, err = truth.Value(Slope, 3)
	assert.True(errors.Is(err, ErrInvalidParameterRequest))
	_, err = truth.Value(Latent, 1)
	assert.True(errors.Is(err, ErrInvalidParameterRequest))

	recov, err := truth.Error(map[string]float64{"a[1]": 0.65, "b[2]": 0.05, "x[1]": 3})
	assert.NoError(err)
	if assert.Len(recov, 2) {
		assert.Equal("a[1]", recov[0].Name)
		assert.InDelta(0.05, recov[0].AbsError, 1e-12)
		assert.Equal("b[2]", recov[1].Name)
		assert.InDelta(0.05, recov[1].AbsError, 1e-12)
	}

	_, err = truth.Error(map[string]float64{"x[1]": 3})
	assert.True(errors.Is(err, ErrInvalidParameterRequest))

	_, err = (&Truth{}).Error(nil)
	assert.True(errors.Is(err, ErrInvalidConfiguration))
}

func TestTruthFile(t *testing.T) {
	assert := assert.New(t)

	_, truth, err := Simulate(rand.NewPCG(42, 42), simSpec())
	assert.NoError(err)

	path := filepath.Join(t.TempDir(), "truth.yaml")
	assert.NoError(truth.WriteTruthFile(path))

	back, err := NewTruthFromFile(path)
	assert.NoError(err)
	assert.Equal(truth, back)

	_, err = NewTruthFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	assert.NoError(ioutil.WriteFile(bad, []byte("slope: [1, 2]\nintercept: [0]\nstddev: [1, 1]\n"), 0644))
	_, err = NewTruthFromFile(bad)
	assert.True(errors.Is(err, ErrDimensionMismatch))
}
