package sampler

import (
	"math"
	mrand "math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/rand"
)

func TestNewGibbsErrors(t *testing.T) {
	assert := assert.New(t)

	m, obs, _ := nearNoiseless(t, 10)

	_, err := NewGibbs(nil, m, obs, true)
	assert.Error(err)

	_, err = NewGibbs(mrand.NewPCG(1, 2), nil, obs, true)
	assert.Error(err)

	_, err = NewGibbs(mrand.NewPCG(1, 2), model.NewModel(4), obs, true)
	assert.True(errors.Is(err, model.ErrDimensionMismatch))

	bad := model.NewModel(3)
	bad.Priors[1].Slope = model.BetaDist(1, 1)
	_, err = NewGibbs(mrand.NewPCG(1, 2), bad, obs, true)
	assert.True(errors.Is(err, model.ErrInvalidConfiguration))
}

func TestGibbsState(t *testing.T) {
	assert := assert.New(t)

	m, obs, _ := nearNoiseless(t, 25)
	gen, err := rand.NewGenerator(42)
	require.NoError(t, err)
	defer gen.Close()

	g, err := NewGibbs(gen, m, obs, true)
	require.NoError(t, err)

	subjects, modalities := g.Dims()
	assert.Equal(25, subjects)
	assert.Equal(3, modalities)
	assert.Equal(25, g.Graph().Subjects)

	// Update schedule: every latent value, then a, b, tau per modality
	assert.Len(g.free, 25+3*3)
	assert.Equal("x[1]", g.free[0].Name)
	assert.Equal("a[1]", g.free[25].Name)
	assert.Equal("tau[3]", g.free[len(g.free)-1].Name)

	for i := 0; i < 50; i++ {
		require.NoError(t, g.Step())
	}

	for i := 1; i <= subjects; i++ {
		x := g.Value(model.Latent, i)
		assert.True(x > 0 && x < 1, "x[%d]=%f outside the population support", i, x)
	}
	for j := 1; j <= modalities; j++ {
		tau := g.Value(model.Precision, j)
		assert.True(tau > 0)
		assert.InDelta(math.Sqrt(1/tau), g.Value(model.StdDev, j), 1e-12)
	}

	assert.True(math.IsNaN(g.Value(model.Slope, 0)))
	assert.True(math.IsNaN(g.Value(model.Slope, 4)))
	assert.True(math.IsNaN(g.Value(model.Latent, 26)))

	moves := g.Moves()
	assert.Len(moves, 2)
	assert.Equal("shift", moves[0].Name)
	assert.Equal("scale", moves[1].Name)
	assert.Equal(int64(50), moves[0].Tried)
	assert.Equal(int64(50), moves[1].Tried)
}

func TestGibbsOneAtATime(t *testing.T) {
	assert := assert.New(t)

	spec := model.SimSpec{
		Subjects:   200,
		Population: model.UniformDist(0, 1),
		Slope:      []float64{1, 1, 1},
		Intercept:  []float64{0, 0, 0},
		StdDev:     []float64{0.05, 0.05, 0.05},
	}
	obs, _, err := model.Simulate(mrand.NewPCG(42, 1), spec)
	require.NoError(t, err)

	m := model.NewModel(3)
	m.Population = model.UniformDist(0, 1)

	gen, err := rand.NewGenerator(42)
	require.NoError(t, err)
	defer gen.Close()

	g, err := NewGibbs(gen, m, obs, false)
	require.NoError(t, err)

	g.Adapt(true)
	for i := 0; i < 300; i++ {
		require.NoError(t, g.Step())
	}
	g.Adapt(false)

	var slope, noise float64
	const draws = 300
	for i := 0; i < draws; i++ {
		require.NoError(t, g.Step())
		slope += g.Value(model.Slope, 1)
		noise += g.Value(model.StdDev, 2)
	}
	assert.InDelta(1.0, slope/draws, 0.2)
	assert.InDelta(0.05, noise/draws, 0.03)
}

func TestAffineMoveAdapts(t *testing.T) {
	assert := assert.New(t)

	mv := newAffineMove("test", 1.0)
	for i := 0; i < adaptBatch; i++ {
		mv.record(true)
	}
	assert.InDelta(1.0, mv.step, 1e-12) // not tuning

	mv.adapt = true
	for i := 0; i < adaptBatch; i++ {
		mv.record(true)
	}
	assert.InDelta(adaptFactor, mv.step, 1e-12)

	for i := 0; i < adaptBatch; i++ {
		mv.record(false)
	}
	assert.InDelta(1.0, mv.step, 1e-12)

	// 30% acceptance is inside the target band
	for i := 0; i < adaptBatch; i++ {
		mv.record(i%10 < 3)
	}
	assert.InDelta(1.0, mv.step, 1e-12)

	st := mv.stats()
	assert.Equal(int64(4*adaptBatch), st.Tried)
	assert.Equal(int64(2*adaptBatch+15), st.Accepted)
	assert.InDelta(float64(115)/200.0, st.Rate(), 1e-12)
	assert.Equal(0.0, MoveStats{}.Rate())
}

func TestNormalKernel(t *testing.T) {
	assert := assert.New(t)

	d := model.NormalPrec(1, 4)
	assert.Equal(0.0, normalKernel(d, 1))
	assert.InDelta(-2.0, normalKernel(d, 2), 1e-12)
	assert.InDelta(normalKernel(d, 0), normalKernel(d, 2), 1e-12)
}
