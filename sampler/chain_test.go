package sampler

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/CraigKelly/nogold/model"
)

// countKernel reports how many sweeps it has taken as every value
type countKernel struct {
	steps   int
	adapted int
	fail    int
}

func (k *countKernel) Step() error {
	k.steps++
	if k.fail > 0 && k.steps >= k.fail {
		return errors.New("boom")
	}
	return nil
}

func (k *countKernel) Value(kind model.Kind, index int) float64 {
	return float64(k.steps) + float64(index)/10.0
}

func (k *countKernel) Dims() (int, int) { return 4, 2 }

func (k *countKernel) Adapt(on bool) {
	if on {
		k.adapted++
	}
}

func TestMonitorNames(t *testing.T) {
	assert := assert.New(t)

	names, kinds, index := MonitorNames([]model.Kind{model.StdDev, model.Latent}, 3, 2)
	assert.Equal([]string{"s[1]", "s[2]", "x[1]", "x[2]", "x[3]"}, names)
	assert.Equal([]model.Kind{model.StdDev, model.StdDev, model.Latent, model.Latent, model.Latent}, kinds)
	assert.Equal([]int{1, 2, 1, 2, 3}, index)

	names, _, _ = MonitorNames(nil, 3, 2)
	assert.Empty(names)
}

func TestChainBurnInAndThinning(t *testing.T) {
	assert := assert.New(t)

	k := &countKernel{}
	cfg := NewDefaultConfig().WithBurnIn(5).WithIterations(12).WithThin(3).WithMonitor(model.Slope)

	ch, err := NewChain(context.Background(), 1, k, cfg)
	assert.NoError(err)
	assert.Equal(5, k.steps)
	assert.Equal(1, k.adapted)
	assert.Equal(0, ch.Samples.Len())
	assert.Equal(int64(0), ch.TotalSampleCount)

	var reported int64
	err = ch.Run(context.Background(), cfg.Iterations, func(n int64) { reported += n })
	assert.NoError(err)
	assert.Equal(int64(12), reported)
	assert.Equal(int64(12), ch.TotalSampleCount)
	assert.Equal(4, ch.Samples.Len())
	assert.Equal([]string{"a[1]", "a[2]"}, ch.Samples.Names)

	// Sweeps 8, 11, 14, 17 in order
	for i, want := range []float64{8, 11, 14, 17} {
		assert.InDelta(want+0.1, ch.Samples.Draws[i][0], 1e-9)
		assert.InDelta(want+0.2, ch.Samples.Draws[i][1], 1e-9)
	}

	// Window defaults to every retained draw
	assert.Equal(4, ch.ConvergenceWindow)
	first, second := ch.Halves(0)
	assert.InDeltaSlice([]float64{8.1, 11.1}, first, 1e-9)
	assert.InDeltaSlice([]float64{14.1, 17.1}, second, 1e-9)
}

func TestChainWindowNotFull(t *testing.T) {
	assert := assert.New(t)

	k := &countKernel{}
	cfg := NewDefaultConfig().WithBurnIn(0).WithIterations(1).WithThin(1).WithMonitor(model.Intercept)

	ch, err := NewChain(context.Background(), 1, k, cfg)
	assert.NoError(err)
	assert.NoError(ch.Run(context.Background(), cfg.Iterations, nil))

	first, second := ch.Halves(0)
	assert.Nil(first)
	assert.Nil(second)

	rhat, problems := Diagnose([]*Chain{ch})
	assert.True(math.IsNaN(rhat["b[1]"]))
	assert.Len(problems, 2)
	assert.True(errors.Is(problems[0], model.ErrInsufficientSamples))
}

func TestChainErrors(t *testing.T) {
	assert := assert.New(t)

	cfg := NewDefaultConfig().WithBurnIn(10).WithIterations(10)

	_, err := NewChain(context.Background(), 1, nil, cfg)
	assert.Error(err)

	_, err = NewChain(context.Background(), 1, &countKernel{fail: 3}, cfg)
	assert.Error(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewChain(ctx, 1, &countKernel{}, cfg)
	assert.True(errors.Is(err, model.ErrCancelled))

	ch, err := NewChain(context.Background(), 1, &countKernel{fail: 15}, cfg)
	assert.NoError(err)
	assert.Error(ch.Run(context.Background(), 10, nil))

	ch, err = NewChain(context.Background(), 1, &countKernel{}, cfg)
	assert.NoError(err)
	assert.True(errors.Is(ch.Run(ctx, 10, nil), model.ErrCancelled))
}

func TestDiagnoseAndUnconverged(t *testing.T) {
	assert := assert.New(t)

	// Two chains stuck at different counts never agree
	cfg := NewDefaultConfig().WithBurnIn(0).WithIterations(40).WithThin(1).WithMonitor(model.Slope)
	k1 := &countKernel{}
	k2 := &countKernel{steps: 1000}
	var chains []*Chain
	for i, k := range []*countKernel{k1, k2} {
		ch, err := NewChain(context.Background(), i+1, k, cfg)
		assert.NoError(err)
		assert.NoError(ch.Run(context.Background(), cfg.Iterations, nil))
		chains = append(chains, ch)
	}

	rhat, problems := Diagnose(chains)
	assert.Empty(problems)
	assert.True(rhat["a[1]"] > 2)
	assert.Equal([]string{"a[1]", "a[2]"}, Unconverged([]string{"a[1]", "a[2]"}, rhat, 1.1))
	assert.Empty(Unconverged([]string{"a[1]"}, map[string]float64{"a[1]": 1.01}, 1.1))
	assert.Empty(Unconverged([]string{"a[1]"}, map[string]float64{"a[1]": math.NaN()}, 1.1))

	_, problems = Diagnose(nil)
	assert.Len(problems, 1)
}
