package model

import (
	"io/ioutil"
	"path/filepath"

	"github.com/pkg/errors"
)

// Reader implementors instantiate a model from a model description.
type Reader interface {
	ReadModel(data []byte) (*Model, error)
}

// LinearPrior holds the priors for one modality's linear observation model
type LinearPrior struct {
	Slope     Dist `yaml:"slope"`     // a[m]: must be Normal
	Intercept Dist `yaml:"intercept"` // b[m]: must be Normal
	Precision Dist `yaml:"precision"` // tau[m]: must be Gamma
}

// DefaultLinearPrior centres the slope at 1 and the intercept at 0 (the
// values of an ideal modality) with precision 1/100, and puts a vague
// Gamma(0.001, 0.001) on the residual precision.
func DefaultLinearPrior() LinearPrior {
	return LinearPrior{
		Slope:     NormalPrec(1, 1.0/100),
		Intercept: NormalPrec(0, 1.0/100),
		Precision: GammaRate(0.001, 0.001),
	}
}

// DefaultPopulation is a flat prior over (0, 1), suitable when the measured
// quantity is a fraction.
func DefaultPopulation() Dist {
	return BetaDist(1, 1)
}

// Model is the hierarchical model: each subject has a latent true value x[i]
// drawn from Population, and modality m observes it as
//
//	y[i,m] ~ Normal(a[m]*x[i] + b[m], precision = tau[m])
//
// with s[m] = sqrt(1/tau[m]) reported alongside a[m] and b[m].
type Model struct {
	Name       string        // Model name
	Modalities int           // Modality count: 0 means take it from the data
	Population Dist          // Prior on every latent true value (i.i.d.)
	Default    LinearPrior   // Used for modalities added by Conform
	Priors     []LinearPrior // Per modality priors: len must equal Modalities
}

// NewModel returns a model with default priors for the given modality count
func NewModel(modalities int) *Model {
	m := &Model{
		Name:       "linear",
		Modalities: modalities,
		Population: DefaultPopulation(),
		Default:    DefaultLinearPrior(),
	}
	m.fillPriors()
	return m
}

// fillPriors grows Priors to Modalities entries using the model default
func (m *Model) fillPriors() {
	for len(m.Priors) < m.Modalities {
		m.Priors = append(m.Priors, m.Default)
	}
}

// Clone returns a deep copy of the model
func (m *Model) Clone() *Model {
	cp := &Model{
		Name:       m.Name,
		Modalities: m.Modalities,
		Population: m.Population,
		Default:    m.Default,
		Priors:     make([]LinearPrior, len(m.Priors)),
	}
	copy(cp.Priors, m.Priors)
	return cp
}

// Prior returns the priors for the 1-based modality index
func (m *Model) Prior(modality int) (LinearPrior, error) {
	if modality < 1 || modality > len(m.Priors) {
		return LinearPrior{}, errors.Wrapf(ErrInvalidParameterRequest,
			"modality %d out of range [1, %d]", modality, len(m.Priors))
	}
	return m.Priors[modality-1], nil
}

// Check returns an error if there is a problem with the model. The Gibbs
// updates are conjugate, so slope and intercept priors must be normal and
// precision priors must be gamma (which also keeps tau > 0).
func (m *Model) Check() error {
	if m.Modalities < 1 {
		return configErrorf("model %s has %d modalities", m.Name, m.Modalities)
	}
	if len(m.Priors) != m.Modalities {
		return dimErrorf("model %s has %d modalities but %d priors", m.Name, m.Modalities, len(m.Priors))
	}

	if err := m.Population.Check(); err != nil {
		return errors.Wrapf(err, "model %s population prior", m.Name)
	}

	for i, p := range m.Priors {
		mod := i + 1
		if p.Slope.Family != Normal {
			return configErrorf("modality %d: slope prior must be normal, found %s", mod, p.Slope)
		}
		if p.Intercept.Family != Normal {
			return configErrorf("modality %d: intercept prior must be normal, found %s", mod, p.Intercept)
		}
		if p.Precision.Family != Gamma {
			return configErrorf("modality %d: precision prior must be gamma, found %s", mod, p.Precision)
		}

		for _, d := range []Dist{p.Slope, p.Intercept, p.Precision} {
			if err := d.Check(); err != nil {
				return errors.Wrapf(err, "modality %d", mod)
			}
		}
	}

	return nil
}

// Conform binds the model to an observation matrix. A model without a
// declared modality count takes it from the data (with default priors); a
// declared count that disagrees with the data is a DimensionMismatch.
// Conform is not safe to call concurrently on a shared model.
func (m *Model) Conform(obs *Observations) error {
	if obs == nil {
		return dimErrorf("no observations supplied for model %s", m.Name)
	}

	_, cols := obs.Dims()
	if m.Modalities == 0 {
		m.Modalities = cols
		m.fillPriors()
	}

	if m.Modalities != cols {
		return dimErrorf("model %s declares %d modalities but data has %d columns", m.Name, m.Modalities, cols)
	}

	return m.Check()
}

// NewModelFromFile initializes and creates a model from the specified source.
func NewModelFromFile(r Reader, filename string) (*Model, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ model from %s", filename)
	}

	model, err := NewModelFromBuffer(r, data)
	if err != nil {
		return nil, err
	}

	// Name the model from the file when the description didn't
	if len(model.Name) < 1 {
		base := filepath.Base(filename)
		model.Name = base[0 : len(base)-len(filepath.Ext(base))]
	}

	return model, nil
}

// NewModelFromBuffer creates a model from the given pre-read data. The
// modality count may still be unknown, so only the priors are checked here;
// Conform performs the full check once data is available.
func NewModelFromBuffer(r Reader, data []byte) (*Model, error) {
	m, err := r.ReadModel(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not PARSE model")
	}

	if m.Modalities > 0 {
		err = m.Check()
	} else {
		err = m.Population.Check()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Parsed model is not valid")
	}

	return m, nil
}
