package sampler

import (
	"context"

	"github.com/pkg/errors"

	"github.com/CraigKelly/nogold/buffer"
	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
)

// progressEvery is how many sweeps pass between progress reports
const progressEvery = 100

// Chain provides functionality around a single kernel: burn-in, thinning,
// the retained draws and a convergence window per monitored parameter.
type Chain struct {
	ID                int
	Kernel            Kernel
	Thin              int
	ConvergenceWindow int
	ChainHistory      []*buffer.CircularFloat // One per monitored parameter
	Samples           *posterior.SampleSet
	TotalSampleCount  int64 // Sweeps taken after burn-in

	kinds []model.Kind
	index []int
	draw  []float64
}

// MonitorNames expands monitored kinds to parameter names: every index of
// the first kind, then every index of the second, and so on. Latent values
// are per subject, everything else per modality.
func MonitorNames(kinds []model.Kind, subjects, modalities int) ([]string, []model.Kind, []int) {
	var names []string
	var outKinds []model.Kind
	var index []int

	for _, k := range kinds {
		count := modalities
		if !k.PerModality() {
			count = subjects
		}
		for i := 1; i <= count; i++ {
			names = append(names, model.ParamName(k, i))
			outKinds = append(outKinds, k)
			index = append(index, i)
		}
	}
	return names, outKinds, index
}

// NewChain returns a chain ready to go. It even performs burn-in, with
// kernel tuning switched on, and switches tuning off once done.
func NewChain(ctx context.Context, id int, k Kernel, cfg *Config) (*Chain, error) {
	if k == nil {
		return nil, errors.Errorf("No kernel supplied for chain %d", id)
	}

	window := cfg.EffectiveWindow()

	subjects, modalities := k.Dims()
	names, kinds, index := MonitorNames(cfg.Monitor, subjects, modalities)
	samples, err := posterior.NewSampleSet(names)
	if err != nil {
		return nil, errors.Wrapf(err, "chain %d", id)
	}

	ch := &Chain{
		ID:                id,
		Kernel:            k,
		Thin:              cfg.Thin,
		ConvergenceWindow: window,
		ChainHistory:      make([]*buffer.CircularFloat, len(names)),
		Samples:           samples,
		kinds:             kinds,
		index:             index,
		draw:              make([]float64, len(names)),
	}
	for i := range ch.ChainHistory {
		ch.ChainHistory[i] = buffer.NewCircularFloat(window)
	}

	k.Adapt(true)
	for i := 0; i < cfg.BurnIn; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(model.ErrCancelled, "chain %d during burn-in: %v", id, err)
		}
		if err := k.Step(); err != nil {
			return nil, errors.Wrapf(err, "Failure during chain %d burn in", id)
		}
	}
	k.Adapt(false)

	return ch, nil
}

// Run takes iterations sweeps, keeping every Thin-th state in order.
// progress, if not nil, is called with the number of sweeps taken since the
// previous call.
func (c *Chain) Run(ctx context.Context, iterations int, progress func(int64)) error {
	var pending int64
	for it := 1; it <= iterations; it++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(model.ErrCancelled, "chain %d after %d sweeps: %v", c.ID, it-1, err)
		}
		if err := c.Kernel.Step(); err != nil {
			return errors.Wrapf(err, "Error taking sample on chain %d", c.ID)
		}
		c.TotalSampleCount++

		if it%c.Thin == 0 {
			if err := c.record(); err != nil {
				return err
			}
		}

		pending++
		if progress != nil && pending >= progressEvery {
			progress(pending)
			pending = 0
		}
	}

	if progress != nil && pending > 0 {
		progress(pending)
	}
	return nil
}

// record appends the kernel's current state to the retained draws
func (c *Chain) record() error {
	for i, k := range c.kinds {
		v := c.Kernel.Value(k, c.index[i])
		c.draw[i] = v
		c.ChainHistory[i].Add(v)
	}
	return c.Samples.Append(c.draw)
}

// Halves returns the first and second half of a parameter's convergence
// window, or nils if the window has not filled
func (c *Chain) Halves(param int) ([]float64, []float64) {
	hist := c.ChainHistory[param]
	if !hist.Full() {
		return nil, nil
	}
	return hist.FirstHalf().Slice(), hist.SecondHalf().Slice()
}
