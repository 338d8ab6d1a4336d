package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.5, Mean(1, 0, 0.5))
	assert.InDelta(0.35, Mean(0.6, 0.05, 0.5), 1e-12)
	assert.Equal(-0.1, Mean(0.6, -0.1, 0))
}

func TestPrecisionConversion(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(0.5, TauToSigma(4), 1e-12)
	assert.InDelta(4.0, SigmaToTau(0.5), 1e-12)

	for _, s := range []float64{1e-4, 0.001, 0.3, 1, 17} {
		assert.InEpsilon(s, TauToSigma(SigmaToTau(s)), 1e-12)
	}

	assert.True(math.IsNaN(TauToSigma(0)))
	assert.True(math.IsNaN(TauToSigma(-1)))
	assert.True(math.IsNaN(SigmaToTau(0)))
}
