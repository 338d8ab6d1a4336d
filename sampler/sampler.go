package sampler

import (
	"context"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
)

// A Sampler draws posterior samples for a model given observed data. Given
// identical data, priors and chain initialisations the draws must be
// identical. Configuration and dimension problems are reported before any
// sampling begins.
type Sampler interface {
	Sample(ctx context.Context, m *model.Model, obs *model.Observations, cfg *Config) (*posterior.Result, error)
}

// A Kernel advances one Markov chain a full sweep at a time and exposes the
// current state. Kernels are not safe for concurrent use; each chain owns one.
type Kernel interface {
	// Step performs one full sweep over every free variable
	Step() error

	// Value returns the current value of a parameter (1-based index)
	Value(kind model.Kind, index int) float64

	// Dims returns (subjects, modalities)
	Dims() (int, int)

	// Adapt turns proposal tuning on (burn-in) or off (sampling)
	Adapt(on bool)
}
