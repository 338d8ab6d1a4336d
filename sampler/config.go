package sampler

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/rand"
)

// FeatureGLM updates each modality's slope and intercept jointly from their
// bivariate normal conditional instead of one at a time.
const FeatureGLM = "glm"

var knownFeatures = map[string]bool{
	FeatureGLM: true,
}

// Default sampler settings
const (
	DefaultThin       = 2
	DefaultBurnIn     = 1000
	DefaultIterations = 4000
	DefaultRhatLimit  = 1.1
)

// Init starts one chain: the generator algorithm and its seed. The number of
// Inits is the number of chains.
type Init struct {
	RNG  rand.Kind
	Seed int64
}

// Policy decides what happens when convergence diagnostics fail
type Policy int

// Convergence policies
const (
	Warn Policy = iota // Attach a warning to the result
	Fail               // Return ConvergenceFailure instead of a result
)

// ParsePolicy accepts "warn" or "fail"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "":
		return Warn, nil
	case "fail":
		return Fail, nil
	}
	return Warn, errors.Wrapf(model.ErrInvalidConfiguration, "unknown convergence policy %q", s)
}

func (p Policy) String() string {
	if p == Fail {
		return "fail"
	}
	return "warn"
}

// Config holds everything a sampler run needs besides the model and data.
type Config struct {
	Monitor    []model.Kind // Parameter kinds kept from each retained draw
	Thin       int          // Keep every Thin-th draw
	BurnIn     int          // Sweeps discarded (and used for tuning) before sampling
	Iterations int          // Sweeps per chain after burn-in, before thinning
	Inits      []Init       // One per chain; seeds must be distinct
	Features   []string     // Optional sampler features, e.g. FeatureGLM
	Window     int          // Retained draws per chain used for R-hat; 0 means all
	RhatLimit  float64      // Split R-hat above this is a convergence failure
	Policy     Policy       // What to do about convergence failures
}

// NewDefaultConfig returns two chains on different generators, thinning 2
// and joint slope/intercept updates.
func NewDefaultConfig() *Config {
	return &Config{
		Monitor:    append([]model.Kind(nil), model.DefaultMonitor...),
		Thin:       DefaultThin,
		BurnIn:     DefaultBurnIn,
		Iterations: DefaultIterations,
		Inits: []Init{
			{RNG: rand.MersenneTwister, Seed: 1},
			{RNG: rand.PCG, Seed: 2},
		},
		Features:  []string{FeatureGLM},
		RhatLimit: DefaultRhatLimit,
		Policy:    Warn,
	}
}

// WithMonitor sets the monitored parameter kinds
func (c *Config) WithMonitor(kinds ...model.Kind) *Config {
	c.Monitor = append([]model.Kind(nil), kinds...)
	return c
}

// WithThin sets the thinning interval
func (c *Config) WithThin(thin int) *Config {
	c.Thin = thin
	return c
}

// WithBurnIn sets the number of burn-in sweeps
func (c *Config) WithBurnIn(burnIn int) *Config {
	c.BurnIn = burnIn
	return c
}

// WithIterations sets the number of sampling sweeps per chain
func (c *Config) WithIterations(iterations int) *Config {
	c.Iterations = iterations
	return c
}

// WithInits replaces the chain initialisations
func (c *Config) WithInits(inits ...Init) *Config {
	c.Inits = append([]Init(nil), inits...)
	return c
}

// WithSeeds uses one Mersenne twister chain per seed
func (c *Config) WithSeeds(seeds ...int64) *Config {
	c.Inits = make([]Init, len(seeds))
	for i, s := range seeds {
		c.Inits[i] = Init{RNG: rand.MersenneTwister, Seed: s}
	}
	return c
}

// WithFeatures replaces the feature flags
func (c *Config) WithFeatures(features ...string) *Config {
	c.Features = append([]string(nil), features...)
	return c
}

// WithWindow sets the convergence window
func (c *Config) WithWindow(window int) *Config {
	c.Window = window
	return c
}

// WithRhatLimit sets the R-hat threshold
func (c *Config) WithRhatLimit(limit float64) *Config {
	c.RhatLimit = limit
	return c
}

// WithPolicy sets the convergence policy
func (c *Config) WithPolicy(p Policy) *Config {
	c.Policy = p
	return c
}

// Enabled is true when the named feature flag is set
func (c *Config) Enabled(feature string) bool {
	for _, f := range c.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Retained is the number of draws each chain keeps
func (c *Config) Retained() int {
	if c.Thin < 1 {
		return 0
	}
	return c.Iterations / c.Thin
}

// EffectiveWindow is the convergence window each chain uses: Window, or
// every retained draw when Window is 0 or larger than that
func (c *Config) EffectiveWindow() int {
	if c.Window < 1 || c.Window > c.Retained() {
		return c.Retained()
	}
	return c.Window
}

// Check returns an InvalidConfiguration error naming the offending setting
// or chain.
func (c *Config) Check() error {
	if c.Thin < 1 {
		return errors.Wrapf(model.ErrInvalidConfiguration, "thinning interval must be positive, got %d", c.Thin)
	}
	if c.BurnIn < 0 {
		return errors.Wrapf(model.ErrInvalidConfiguration, "burn-in must not be negative, got %d", c.BurnIn)
	}
	if c.Iterations < c.Thin {
		return errors.Wrapf(model.ErrInvalidConfiguration,
			"%d iterations with thinning %d keeps no draws", c.Iterations, c.Thin)
	}
	if c.Window < 0 {
		return errors.Wrapf(model.ErrInvalidConfiguration, "convergence window must not be negative, got %d", c.Window)
	}
	if c.RhatLimit <= 1 {
		return errors.Wrapf(model.ErrInvalidConfiguration, "R-hat limit must be above 1, got %g", c.RhatLimit)
	}
	if c.Policy != Warn && c.Policy != Fail {
		return errors.Wrapf(model.ErrInvalidConfiguration, "unknown convergence policy %d", int(c.Policy))
	}

	if len(c.Monitor) < 1 {
		return errors.Wrapf(model.ErrInvalidConfiguration, "no parameters monitored")
	}
	seenKind := make(map[model.Kind]bool)
	for _, k := range c.Monitor {
		if !k.Valid() {
			return errors.Wrapf(model.ErrInvalidConfiguration, "unknown monitored parameter kind %d", int(k))
		}
		if seenKind[k] {
			return errors.Wrapf(model.ErrInvalidConfiguration, "parameter kind %s monitored twice", k)
		}
		seenKind[k] = true
	}

	for _, f := range c.Features {
		if !knownFeatures[f] {
			return errors.Wrapf(model.ErrInvalidConfiguration, "unknown sampler feature %q", f)
		}
	}

	if len(c.Inits) < 1 {
		return errors.Wrapf(model.ErrInvalidConfiguration, "at least one chain initialisation is required")
	}
	seeds := make(map[int64]int)
	for i, init := range c.Inits {
		chain := i + 1
		if _, err := rand.ParseKind(string(init.RNG)); err != nil {
			return errors.Wrapf(model.ErrInvalidConfiguration, "chain %d: %v", chain, err)
		}
		if prev, dup := seeds[init.Seed]; dup {
			return errors.Wrapf(model.ErrInvalidConfiguration,
				"chains %d and %d share seed %d", prev, chain, init.Seed)
		}
		seeds[init.Seed] = chain
	}

	return nil
}
