package posterior

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/CraigKelly/nogold/model"
)

var nan = math.NaN()

// GelmanRubin returns the potential scale reduction factor (R-hat) of two or
// more equal length sequences. Passing each chain's first and second half as
// separate sequences gives the split R-hat, which also catches drift within
// a single chain. Values near 1 indicate the sequences agree.
func GelmanRubin(seqs [][]float64) (float64, error) {
	m := len(seqs)
	if m < 2 {
		return nan, errors.Wrapf(model.ErrInsufficientSamples, "R-hat needs at least 2 sequences, got %d", m)
	}
	n := len(seqs[0])
	if n < 2 {
		return nan, errors.Wrapf(model.ErrInsufficientSamples, "R-hat needs sequences of at least 2 draws, got %d", n)
	}

	means := make([]float64, m)
	vars := make([]float64, m)
	for j, s := range seqs {
		if len(s) != n {
			return nan, errors.Wrapf(model.ErrDimensionMismatch, "sequence %d has %d draws, expected %d", j+1, len(s), n)
		}
		means[j], vars[j] = stat.MeanVariance(s, nil)
	}

	fn := float64(n)
	_, meanVar := stat.MeanVariance(means, nil)
	between := fn * meanVar
	within := stat.Mean(vars, nil)

	if within <= 0 {
		if between <= 0 {
			return 1, nil // every sequence is the same constant
		}
		return math.Inf(1), nil
	}

	pooledVar := (fn-1)/fn*within + between/fn
	return math.Sqrt(pooledVar / within), nil
}
