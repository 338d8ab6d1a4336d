package sampler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
	"github.com/CraigKelly/nogold/rand"
)

// Runner is the standard Sampler: one Gibbs kernel per chain initialisation,
// all chains running concurrently.
type Runner struct {
	Logger *zap.Logger

	// Progress, if set, is called from the chain goroutines with a chain ID
	// (1-based) and the sweeps taken since its last report
	Progress func(chain int, sweeps int64)
}

var _ Sampler = (*Runner)(nil)

// NewRunner returns a Runner logging to logger (nil for no logging)
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Logger: logger}
}

// Sample validates everything, runs every chain to completion and returns
// their draws with summaries and diagnostics. Cancelling ctx returns
// ErrCancelled and no partial output.
func (r *Runner) Sample(ctx context.Context, m *model.Model, obs *model.Observations, cfg *Config) (*posterior.Result, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.Wrapf(model.ErrInvalidConfiguration, "no model supplied")
	}

	mod := m.Clone()
	if err := mod.Conform(obs); err != nil {
		return nil, err
	}
	subjects, modalities := obs.Dims()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(model.ErrCancelled, "before sampling: %v", err)
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	log := logger.With(zap.String("run", runID))
	log.Info("sampling",
		zap.String("model", mod.Name),
		zap.Int("subjects", subjects),
		zap.Int("modalities", modalities),
		zap.Int("chains", len(cfg.Inits)),
		zap.Int("burnIn", cfg.BurnIn),
		zap.Int("iterations", cfg.Iterations),
		zap.Int("thin", cfg.Thin),
		zap.Strings("features", cfg.Features),
	)
	start := time.Now()

	chains := make([]*Chain, len(cfg.Inits))
	grp, gctx := errgroup.WithContext(ctx)
	for c, init := range cfg.Inits {
		c, init := c, init
		grp.Go(func() error {
			ch, err := r.runChain(gctx, log, c+1, init, mod, obs, cfg)
			if err != nil {
				return err
			}
			chains[c] = ch
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(model.ErrCancelled, "run %s: %v", runID, ctx.Err())
		}
		return nil, err
	}

	result := &posterior.Result{
		RunID:      runID,
		Modalities: modalities,
		Chains:     make([]*posterior.SampleSet, len(chains)),
	}
	for i, ch := range chains {
		result.Chains[i] = ch.Samples
	}

	rhat, problems := Diagnose(chains)
	result.Rhat = rhat
	for _, p := range problems {
		result.Warnings = append(result.Warnings, p)
		log.Warn("convergence not assessed", zap.Error(p))
	}

	names := chains[0].Samples.Names
	bad := Unconverged(names, rhat, cfg.RhatLimit)
	if len(bad) > 0 && cfg.Policy == Fail {
		return nil, errors.Wrapf(model.ErrConvergenceFailure, "run %s: R-hat above %.3f for %s",
			runID, cfg.RhatLimit, strings.Join(bad, ", "))
	}
	for _, name := range bad {
		w := errors.Wrapf(model.ErrConvergenceFailure, "%s: split R-hat %.4f above %.3f", name, rhat[name], cfg.RhatLimit)
		result.Warnings = append(result.Warnings, w)
		log.Warn("parameter did not converge", zap.String("param", name), zap.Float64("rhat", rhat[name]))
	}

	if err := result.Summarize(); err != nil {
		return nil, err
	}

	log.Info("sampling done",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("draws", chains[0].Samples.Len()*len(chains)),
		zap.Bool("converged", result.Converged()),
	)
	return result, nil
}

func (r *Runner) runChain(ctx context.Context, log *zap.Logger, id int, init Init,
	mod *model.Model, obs *model.Observations, cfg *Config) (*Chain, error) {

	gen, err := rand.New(init.RNG, init.Seed)
	if err != nil {
		return nil, errors.Wrapf(model.ErrInvalidConfiguration, "chain %d: %v", id, err)
	}
	defer gen.Close()

	kernel, err := NewGibbs(gen, mod, obs, cfg.Enabled(FeatureGLM))
	if err != nil {
		return nil, err
	}

	ch, err := NewChain(ctx, id, kernel, cfg)
	if err != nil {
		return nil, err
	}

	var progress func(int64)
	if r.Progress != nil {
		progress = func(n int64) { r.Progress(id, n) }
	}
	if err := ch.Run(ctx, cfg.Iterations, progress); err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("chain", id),
		zap.String("rng", string(init.RNG)),
		zap.Int64("seed", init.Seed),
		zap.Int("draws", ch.Samples.Len()),
	}
	for _, mv := range kernel.Moves() {
		fields = append(fields,
			zap.Float64(mv.Name+"Step", mv.Step),
			zap.Float64(mv.Name+"Accept", mv.Rate()))
	}
	log.Debug("chain finished", fields...)

	return ch, nil
}
