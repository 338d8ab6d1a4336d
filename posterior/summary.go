package posterior

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/CraigKelly/nogold/model"
)

// Summary is the informational per-parameter digest of a sample set. The
// comparator does not need it.
type Summary struct {
	Name   string
	Mean   float64
	StdDev float64
	Lower  float64 // 2.5th percentile
	Median float64
	Upper  float64 // 97.5th percentile
	Rhat   float64 // Potential scale reduction, NaN when not computed
}

// Summarize computes a Summary for every parameter in the set
func Summarize(s *SampleSet) ([]Summary, error) {
	if s == nil || s.Len() == 0 {
		return nil, errors.Wrapf(model.ErrInsufficientSamples, "can not summarize an empty sample set")
	}

	out := make([]Summary, 0, len(s.Names))
	for _, name := range s.Names {
		col, err := s.Column(name)
		if err != nil {
			return nil, err
		}
		sum, err := summarizeColumn(name, col)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func summarizeColumn(name string, col []float64) (Summary, error) {
	var sum Summary
	var err error
	sum.Name = name
	sum.Rhat = nan

	if sum.Mean, err = stats.Mean(col); err != nil {
		return sum, errors.Wrapf(err, "mean of %s", name)
	}
	if len(col) > 1 {
		if sum.StdDev, err = stats.StandardDeviationSample(col); err != nil {
			return sum, errors.Wrapf(err, "std dev of %s", name)
		}
	}
	if sum.Median, err = stats.Median(col); err != nil {
		return sum, errors.Wrapf(err, "median of %s", name)
	}
	if sum.Lower, err = stats.Percentile(col, 2.5); err != nil {
		sum.Lower = sum.Median // too few draws for the tail
	}
	if sum.Upper, err = stats.Percentile(col, 97.5); err != nil {
		sum.Upper = sum.Median
	}

	return sum, nil
}

// Means maps parameter names to posterior means
func Means(summary []Summary) map[string]float64 {
	out := make(map[string]float64, len(summary))
	for _, s := range summary {
		out[s.Name] = s.Mean
	}
	return out
}
