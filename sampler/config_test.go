package sampler

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/rand"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := NewDefaultConfig()
	assert.NoError(cfg.Check())
	assert.Equal(2, cfg.Thin)
	assert.Len(cfg.Inits, 2)
	assert.True(cfg.Enabled(FeatureGLM))
	assert.False(cfg.Enabled("nope"))
	assert.Equal(DefaultIterations/DefaultThin, cfg.Retained())
	assert.Equal(model.DefaultMonitor, cfg.Monitor)

	// Builders do not share slices with the defaults
	cfg.WithMonitor(model.Latent)
	assert.Equal([]model.Kind{model.Slope, model.Intercept, model.StdDev}, model.DefaultMonitor)
}

func TestConfigCheck(t *testing.T) {
	assert := assert.New(t)

	bad := map[string]*Config{
		"thin zero":      NewDefaultConfig().WithThin(0),
		"thin negative":  NewDefaultConfig().WithThin(-2),
		"burn negative":  NewDefaultConfig().WithBurnIn(-1),
		"no draws":       NewDefaultConfig().WithIterations(1).WithThin(2),
		"window":         NewDefaultConfig().WithWindow(-1),
		"rhat":           NewDefaultConfig().WithRhatLimit(1.0),
		"policy":         NewDefaultConfig().WithPolicy(Policy(9)),
		"no monitor":     NewDefaultConfig().WithMonitor(),
		"bad monitor":    NewDefaultConfig().WithMonitor(model.Kind(42)),
		"twice":          NewDefaultConfig().WithMonitor(model.Slope, model.Slope),
		"feature":        NewDefaultConfig().WithFeatures("glm", "turbo"),
		"no chains":      NewDefaultConfig().WithInits(),
		"same seed":      NewDefaultConfig().WithSeeds(3, 4, 3),
		"mixed rng seed": NewDefaultConfig().WithInits(Init{rand.PCG, 1}, Init{rand.ChaCha8, 1}),
		"unknown rng":    NewDefaultConfig().WithInits(Init{rand.Kind("lcg"), 1}),
	}
	for name, cfg := range bad {
		err := cfg.Check()
		assert.Error(err, name)
		assert.True(errors.Is(err, model.ErrInvalidConfiguration), name)
	}

	good := NewDefaultConfig().WithFeatures().WithSeeds(10, 11, 12).WithWindow(100).WithPolicy(Fail)
	assert.NoError(good.Check())
	assert.False(good.Enabled(FeatureGLM))
}

func TestEffectiveWindow(t *testing.T) {
	assert := assert.New(t)

	cfg := NewDefaultConfig().WithIterations(100).WithThin(2)
	assert.Equal(50, cfg.EffectiveWindow())
	assert.Equal(20, cfg.WithWindow(20).EffectiveWindow())
	assert.Equal(50, cfg.WithWindow(500).EffectiveWindow())
}

func TestParsePolicy(t *testing.T) {
	assert := assert.New(t)

	p, err := ParsePolicy("FAIL")
	assert.NoError(err)
	assert.Equal(Fail, p)
	assert.Equal("fail", p.String())

	p, err = ParsePolicy("")
	assert.NoError(err)
	assert.Equal(Warn, p)
	assert.Equal("warn", p.String())

	_, err = ParsePolicy("panic")
	assert.True(errors.Is(err, model.ErrInvalidConfiguration))
}
