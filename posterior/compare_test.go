package posterior

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CraigKelly/nogold/model"
)

func slopeSet(t *testing.T, draws int, gen func(i int) (float64, float64, float64)) *SampleSet {
	s, err := NewSampleSet([]string{"a[1]", "a[2]", "a[3]", "b[1]", "b[2]", "b[3]"})
	require.NoError(t, err)
	for i := 0; i < draws; i++ {
		a1, a2, a3 := gen(i)
		require.NoError(t, s.Append([]float64{a1, a2, a3, 0, 0, 0}))
	}
	return s
}

func TestCompareMonotone(t *testing.T) {
	assert := assert.New(t)

	// Modality 2 is always exactly 0.1 closer to the ideal slope than 1
	r := rand.New(rand.NewPCG(42, 42))
	s := slopeSet(t, 500, func(int) (float64, float64, float64) {
		a1 := 1.3 + 0.02*r.NormFloat64()
		return a1, a1 - 0.1, 1.0
	})

	cmp, err := NewComparator(s, 0)
	require.NoError(t, err)
	assert.Equal(3, cmp.Modalities())

	p, err := cmp.Compare(model.Slope, 2, 1, 1.0)
	assert.NoError(err)
	assert.Equal(1.0, p)

	p, err = cmp.Compare(model.Slope, 1, 2, 1.0)
	assert.NoError(err)
	assert.Equal(0.0, p)

	// Ideal modality 3 ties with nobody and beats both
	p, err = cmp.Compare(model.Slope, 3, 1, 1.0)
	assert.NoError(err)
	assert.Equal(1.0, p)
}

func TestCompareTightPosteriors(t *testing.T) {
	assert := assert.New(t)

	r := rand.New(rand.NewPCG(42, 7))
	s := slopeSet(t, 1000, func(int) (float64, float64, float64) {
		return 1.0 + 0.01*r.NormFloat64(), 2.0 + 0.01*r.NormFloat64(), 0
	})
	cmp, err := NewComparator(s, 3)
	require.NoError(t, err)

	p, err := cmp.Compare(model.Slope, 1, 2, 1.0)
	assert.NoError(err)
	assert.True(p > 0.95)
}

func TestContrastSumsToOne(t *testing.T) {
	assert := assert.New(t)

	r := rand.New(rand.NewPCG(1, 2))
	s := slopeSet(t, 777, func(i int) (float64, float64, float64) {
		if i%10 == 0 {
			return 0.5, 1.5, 1 // exact tie at distance 0.5
		}
		return 1 + r.NormFloat64(), 1 + r.NormFloat64(), 1
	})
	cmp, err := NewComparator(s, 3)
	require.NoError(t, err)

	c, err := cmp.Contrast(model.Slope, 1, 2, 1.0)
	assert.NoError(err)
	assert.InDelta(1.0, c.Probability+c.Reverse+c.Ties, 1e-12)
	assert.InDelta(78.0/777.0, c.Ties, 1e-12)
	assert.Equal(777, c.Samples)
	assert.True(c.StdErr() > 0)

	rev, err := cmp.Contrast(model.Slope, 2, 1, 1.0)
	assert.NoError(err)
	assert.Equal(c.Probability, rev.Reverse)
	assert.Equal(c.Reverse, rev.Probability)

	p12, _ := cmp.Compare(model.Slope, 1, 2, 1.0)
	p21, _ := cmp.Compare(model.Slope, 2, 1, 1.0)
	assert.True(p12+p21 <= 1.0)

	assert.Contains(c.String(), "(slope, 1, 2, 1, ")
	assert.True(math.IsNaN(Comparison{}.StdErr()))

	all, err := cmp.All(model.Slope, 1.0)
	assert.NoError(err)
	assert.Len(all, 6)
	assert.Equal(1, all[0].I)
	assert.Equal(2, all[0].J)
}

func TestCompareRequests(t *testing.T) {
	assert := assert.New(t)

	s := slopeSet(t, 3, func(int) (float64, float64, float64) { return 1, 1, 1 })
	cmp, err := NewComparator(s, 3)
	require.NoError(t, err)

	bad := []struct {
		kind model.Kind
		i, j int
	}{
		{model.Slope, 2, 2},
		{model.Slope, 0, 1},
		{model.Slope, 1, 4},
		{model.Latent, 1, 2},
		{model.Precision, 1, 2},
	}
	for _, b := range bad {
		_, err := cmp.Compare(b.kind, b.i, b.j, 1.0)
		assert.True(errors.Is(err, model.ErrInvalidParameterRequest), "%v", b)
	}

	// Not monitored
	_, err = cmp.Compare(model.StdDev, 1, 2, 0)
	assert.True(errors.Is(err, model.ErrInvalidParameterRequest))

	// All tie
	c, err := cmp.Contrast(model.Intercept, 1, 3, 0)
	assert.NoError(err)
	assert.Equal(1.0, c.Ties)

	empty, err := NewSampleSet([]string{"a[1]", "a[2]"})
	require.NoError(t, err)
	cmp, err = NewComparator(empty, 2)
	require.NoError(t, err)
	_, err = cmp.Compare(model.Slope, 1, 2, 1.0)
	assert.True(errors.Is(err, model.ErrInsufficientSamples))

	_, err = NewComparator(nil, 2)
	assert.True(errors.Is(err, model.ErrInsufficientSamples))
}

func TestContrastRejectsNonFiniteDraws(t *testing.T) {
	assert := assert.New(t)

	s := slopeSet(t, 4, func(i int) (float64, float64, float64) {
		if i == 2 {
			return math.NaN(), 1, 1
		}
		return 1, 2, 3
	})
	cmp, err := NewComparator(s, 3)
	require.NoError(t, err)

	_, err = cmp.Contrast(model.Slope, 1, 2, 1.0)
	assert.True(errors.Is(err, model.ErrInsufficientSamples))
	_, err = cmp.All(model.Slope, 1.0)
	assert.Error(err)

	// Columns without the bad draw still compare
	p, err := cmp.Compare(model.Slope, 2, 3, 1.0)
	assert.NoError(err)
	assert.InDelta(1.0, p, 1e-12)
}
