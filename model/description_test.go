package model

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestYAMLDescription(t *testing.T) {
	assert := assert.New(t)

	data := []byte(`
name: custom
data:
  modalities: 2
model:
  population: {family: uniform, p1: 0, p2: 100}
  precision: {family: gamma, p1: 1, p2: 1}
  modalities:
    - index: 1
      intercept: {family: normal, p1: 5, p2: 2}
`)
	m, err := NewModelFromBuffer(YAMLReader{}, data)
	assert.NoError(err)
	assert.Equal("custom", m.Name)
	assert.Equal(UniformDist(0, 100), m.Population)
	assert.Equal(GammaRate(1, 1), m.Default.Precision)
	assert.Equal(NormalPrec(5, 2), m.Priors[0].Intercept)
	assert.Equal(GammaRate(1, 1), m.Priors[0].Precision)
	assert.Equal(NormalPrec(0, 0.01), m.Priors[1].Intercept)
}

func TestYAMLDescriptionErrors(t *testing.T) {
	assert := assert.New(t)

	bad := map[string]string{
		"unknown field":     "name: x\ncolor: red\n",
		"negative":          "data: {modalities: -1}\n",
		"override no count": "model:\n  modalities:\n    - index: 1\n      slope: {family: normal, p1: 0, p2: 1}\n",
		"override range":    "data: {modalities: 2}\nmodel:\n  modalities:\n    - index: 3\n",
		"bad default":       "model:\n  slope: {family: normal, p1: 0, p2: 0}\n",
		"bad population":    "model:\n  population: {family: beta, p1: -1, p2: 1}\n",
		"wrong family":      "data: {modalities: 1}\nmodel:\n  precision: {family: beta, p1: 1, p2: 1}\n",
		"not yaml":          "{{{",
	}
	for name, data := range bad {
		_, err := NewModelFromBuffer(YAMLReader{}, []byte(data))
		assert.Error(err, name)
	}

	_, err := NewModelFromBuffer(YAMLReader{}, []byte("data: {modalities: 2}\nmodel:\n  modalities:\n    - index: 0\n"))
	assert.True(errors.Is(err, ErrInvalidConfiguration))
}

func TestMarshalDescription(t *testing.T) {
	assert := assert.New(t)

	m := NewModel(3)
	m.Name = "marshal"
	m.Population = BetaDist(2, 5)
	m.Priors[2].Slope = NormalPrec(0.5, 4)

	out, err := MarshalDescription(m)
	assert.NoError(err)

	back, err := NewModelFromBuffer(YAMLReader{}, out)
	assert.NoError(err)
	assert.Equal(m, back)
}
