package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// SimSpec describes a synthetic data set with known generating values
type SimSpec struct {
	Subjects   int       // n_obs
	Population Dist      // Latent true values are drawn from here
	Slope      []float64 // a[m]
	Intercept  []float64 // b[m]
	StdDev     []float64 // s[m]; 0 is allowed and means no noise
}

// Check returns an error if the settings can not be simulated
func (s SimSpec) Check() error {
	if s.Subjects < 1 {
		return configErrorf("simulation needs at least one subject, got %d", s.Subjects)
	}
	if err := s.Population.Check(); err != nil {
		return errors.Wrap(err, "simulation population")
	}
	t := Truth{Slope: s.Slope, Intercept: s.Intercept, StdDev: s.StdDev}
	return t.Check()
}

// Simulate draws latent values from the population distribution and then
// every modality's observations from the linear model. All randomness comes
// from src, so a seeded source gives reproducible data.
func Simulate(src rand.Source, spec SimSpec) (*Observations, *Truth, error) {
	if err := spec.Check(); err != nil {
		return nil, nil, err
	}

	nMod := len(spec.Slope)
	truth := &Truth{
		Latent:    make([]float64, spec.Subjects),
		Slope:     append([]float64(nil), spec.Slope...),
		Intercept: append([]float64(nil), spec.Intercept...),
		StdDev:    append([]float64(nil), spec.StdDev...),
	}

	pop := spec.Population.Distribution(src)
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	flat := make([]float64, spec.Subjects*nMod)
	for i := range truth.Latent {
		x := pop.Rand()
		truth.Latent[i] = x
		for m := 0; m < nMod; m++ {
			flat[i*nMod+m] = Mean(spec.Slope[m], spec.Intercept[m], x) + spec.StdDev[m]*noise.Rand()
		}
	}

	obs, err := newObservations(spec.Subjects, nMod, flat)
	if err != nil {
		return nil, nil, err
	}
	return obs, truth, nil
}
