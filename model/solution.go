package model

import (
	"io/ioutil"
	"math"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Truth is the known set of generating values behind simulated data. It is
// only available when validating the method against synthetic data.
type Truth struct {
	Latent    []float64 `yaml:"latent,flow"`    // x[i]
	Slope     []float64 `yaml:"slope,flow"`     // a[m]
	Intercept []float64 `yaml:"intercept,flow"` // b[m]
	StdDev    []float64 `yaml:"stddev,flow"`    // s[m]
}

// NewTruthFromFile reads a YAML truth file as written by WriteTruthFile
func NewTruthFromFile(filename string) (*Truth, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ truth from %s", filename)
	}

	var t Truth
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "Could not PARSE truth from %s", filename)
	}
	if err := t.Check(); err != nil {
		return nil, errors.Wrapf(err, "truth file %s", filename)
	}
	return &t, nil
}

// WriteTruthFile saves the truth as YAML
func (t *Truth) WriteTruthFile(filename string) error {
	out, err := yaml.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "Could not marshal truth")
	}
	if err := ioutil.WriteFile(filename, out, 0644); err != nil {
		return errors.Wrapf(err, "Could not WRITE truth to %s", filename)
	}
	return nil
}

// Modalities is the number of modalities described
func (t *Truth) Modalities() int {
	return len(t.Slope)
}

// Check insures that the truth is internally consistent
func (t *Truth) Check() error {
	n := len(t.Slope)
	if n < 1 {
		return configErrorf("truth has no modalities")
	}
	if len(t.Intercept) != n || len(t.StdDev) != n {
		return dimErrorf("truth has %d slopes, %d intercepts and %d std devs",
			n, len(t.Intercept), len(t.StdDev))
	}
	for i, s := range t.StdDev {
		if s < 0 || math.IsNaN(s) {
			return configErrorf("truth std dev for modality %d is %v", i+1, s)
		}
	}
	return nil
}

// Value returns the true value of a named per-modality parameter
func (t *Truth) Value(k Kind, modality int) (float64, error) {
	if modality < 1 || modality > t.Modalities() {
		return 0, errors.Wrapf(ErrInvalidParameterRequest, "modality %d out of range [1, %d]", modality, t.Modalities())
	}

	m := modality - 1
	switch k {
	case Slope:
		return t.Slope[m], nil
	case Intercept:
		return t.Intercept[m], nil
	case StdDev:
		return t.StdDev[m], nil
	case Precision:
		return SigmaToTau(t.StdDev[m]), nil
	}
	return 0, errors.Wrapf(ErrInvalidParameterRequest, "no true value for %s", k)
}

// Recovery is the absolute error of one estimated parameter
type Recovery struct {
	Name     string
	Truth    float64
	Estimate float64
	AbsError float64
}

// Error compares estimates (parameter name -> posterior mean) against the
// truth for every per-modality slope, intercept and std dev present.
func (t *Truth) Error(estimates map[string]float64) ([]Recovery, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}

	var out []Recovery
	for _, k := range DefaultMonitor {
		for m := 1; m <= t.Modalities(); m++ {
			name := ParamName(k, m)
			est, ok := estimates[name]
			if !ok {
				continue
			}
			tv, err := t.Value(k, m)
			if err != nil {
				return nil, err
			}
			out = append(out, Recovery{
				Name:     name,
				Truth:    tv,
				Estimate: est,
				AbsError: math.Abs(est - tv),
			})
		}
	}

	if len(out) < 1 {
		return nil, errors.Wrapf(ErrInvalidParameterRequest, "no estimates match the truth's parameters")
	}
	return out, nil
}
