package model

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAMLReader reads a model description. The description has a data section
// (the shape the observations must have) and a model section (the priors):
//
//	name: fraction
//	data:
//	  modalities: 3          # optional, taken from the data when absent
//	model:
//	  population: {family: beta, p1: 2, p2: 5}
//	  slope:      {family: normal, p1: 1, p2: 0.01}
//	  intercept:  {family: normal, p1: 0, p2: 0.01}
//	  precision:  {family: gamma, p1: 0.001, p2: 0.001}
//	  modalities:            # per modality overrides (1-based)
//	    - index: 2
//	      slope: {family: normal, p1: 1, p2: 1}
//
// Any prior that is left out keeps its default.
type YAMLReader struct{}

type yamlOverride struct {
	Index     int   `yaml:"index"`
	Slope     *Dist `yaml:"slope"`
	Intercept *Dist `yaml:"intercept"`
	Precision *Dist `yaml:"precision"`
}

type yamlDescription struct {
	Name string `yaml:"name"`
	Data struct {
		Modalities int `yaml:"modalities"`
	} `yaml:"data"`
	Model struct {
		Population *Dist          `yaml:"population"`
		Slope      *Dist          `yaml:"slope"`
		Intercept  *Dist          `yaml:"intercept"`
		Precision  *Dist          `yaml:"precision"`
		Modalities []yamlOverride `yaml:"modalities"`
	} `yaml:"model"`
}

// apply copies any priors present in the override onto lp
func (o yamlOverride) apply(lp *LinearPrior) {
	if o.Slope != nil {
		lp.Slope = *o.Slope
	}
	if o.Intercept != nil {
		lp.Intercept = *o.Intercept
	}
	if o.Precision != nil {
		lp.Precision = *o.Precision
	}
}

// ReadModel implements the model.Reader interface
func (r YAMLReader) ReadModel(data []byte) (*Model, error) {
	var desc yamlDescription

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil {
		return nil, errors.Wrap(err, "Error decoding YAML model description")
	}

	if desc.Data.Modalities < 0 {
		return nil, configErrorf("data section declares %d modalities", desc.Data.Modalities)
	}

	m := NewModel(0)
	m.Name = desc.Name

	if desc.Model.Population != nil {
		m.Population = *desc.Model.Population
	}

	yamlOverride{
		Slope:     desc.Model.Slope,
		Intercept: desc.Model.Intercept,
		Precision: desc.Model.Precision,
	}.apply(&m.Default)

	m.Modalities = desc.Data.Modalities
	m.fillPriors()

	for _, o := range desc.Model.Modalities {
		if m.Modalities == 0 {
			return nil, configErrorf("per modality priors need data.modalities to be declared")
		}
		if o.Index < 1 || o.Index > m.Modalities {
			return nil, configErrorf("prior override for modality %d outside [1, %d]", o.Index, m.Modalities)
		}
		o.apply(&m.Priors[o.Index-1])
	}

	if err := m.Default.Slope.Check(); err != nil {
		return nil, errors.Wrap(err, "default slope prior")
	}
	if err := m.Default.Intercept.Check(); err != nil {
		return nil, errors.Wrap(err, "default intercept prior")
	}
	if err := m.Default.Precision.Check(); err != nil {
		return nil, errors.Wrap(err, "default precision prior")
	}

	return m, nil
}

// MarshalDescription renders a model in the format read by YAMLReader
func MarshalDescription(m *Model) ([]byte, error) {
	var desc yamlDescription
	desc.Name = m.Name
	desc.Data.Modalities = m.Modalities

	pop, def := m.Population, m.Default
	desc.Model.Population = &pop
	desc.Model.Slope = &def.Slope
	desc.Model.Intercept = &def.Intercept
	desc.Model.Precision = &def.Precision

	for i := range m.Priors {
		if m.Priors[i] == m.Default {
			continue
		}
		p := m.Priors[i]
		desc.Model.Modalities = append(desc.Model.Modalities, yamlOverride{
			Index:     i + 1,
			Slope:     &p.Slope,
			Intercept: &p.Intercept,
			Precision: &p.Precision,
		})
	}

	out, err := yaml.Marshal(&desc)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not marshal model %s", m.Name)
	}
	return out, nil
}
