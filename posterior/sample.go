// Package posterior holds MCMC output: per-chain sample sets, pooling,
// summaries, the Gelman-Rubin diagnostic, the pairwise modality comparator,
// and the XLSX sample artifact.
package posterior

import (
	"github.com/pkg/errors"

	"github.com/CraigKelly/nogold/model"
)

// SampleSet is an ordered sequence of draws. Every draw assigns a value to
// each named parameter; Draws[t][k] is the value of Names[k] in draw t.
type SampleSet struct {
	Names []string
	Draws [][]float64
	index map[string]int
}

// NewSampleSet creates an empty sample set for the given parameter names
func NewSampleSet(names []string) (*SampleSet, error) {
	if len(names) < 1 {
		return nil, errors.Wrapf(model.ErrInvalidConfiguration, "a sample set needs at least one parameter")
	}

	s := &SampleSet{
		Names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, n := range s.Names {
		if _, dup := s.index[n]; dup {
			return nil, errors.Wrapf(model.ErrInvalidConfiguration, "duplicate parameter %s", n)
		}
		s.index[n] = i
	}
	return s, nil
}

// Append adds a copy of one draw to the end of the set
func (s *SampleSet) Append(draw []float64) error {
	if len(draw) != len(s.Names) {
		return errors.Wrapf(model.ErrDimensionMismatch, "draw has %d values for %d parameters", len(draw), len(s.Names))
	}
	s.Draws = append(s.Draws, append([]float64(nil), draw...))
	return nil
}

// Len is the number of draws
func (s *SampleSet) Len() int {
	return len(s.Draws)
}

// Has is true if the set records the named parameter
func (s *SampleSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Index returns the column of a named parameter
func (s *SampleSet) Index(name string) (int, error) {
	k, ok := s.index[name]
	if !ok {
		return -1, errors.Wrapf(model.ErrInvalidParameterRequest, "parameter %s was not monitored", name)
	}
	return k, nil
}

// Column returns a copy of every draw of the named parameter, in draw order
func (s *SampleSet) Column(name string) ([]float64, error) {
	k, err := s.Index(name)
	if err != nil {
		return nil, err
	}

	col := make([]float64, len(s.Draws))
	for t, d := range s.Draws {
		col[t] = d[k]
	}
	return col, nil
}

// sameNames is true if both sets record the same parameters in the same order
func (s *SampleSet) sameNames(o *SampleSet) bool {
	if len(s.Names) != len(o.Names) {
		return false
	}
	for i, n := range s.Names {
		if o.Names[i] != n {
			return false
		}
	}
	return true
}

// Pool concatenates the chains into one combined sample set. This is only
// valid once the chains have converged: pooling treats the draws as
// exchangeable, and Pool does not check convergence itself.
func Pool(chains []*SampleSet) (*SampleSet, error) {
	if len(chains) < 1 {
		return nil, errors.Wrapf(model.ErrInsufficientSamples, "can not pool 0 chains")
	}

	first := chains[0]
	total := 0
	for i, ch := range chains {
		if ch == nil {
			return nil, errors.Wrapf(model.ErrInsufficientSamples, "chain %d is missing", i+1)
		}
		if !first.sameNames(ch) {
			return nil, errors.Wrapf(model.ErrDimensionMismatch,
				"chain %d records %d parameters, chain 1 records %d", i+1, len(ch.Names), len(first.Names))
		}
		total += ch.Len()
	}

	pooled, err := NewSampleSet(first.Names)
	if err != nil {
		return nil, err
	}

	// Draws are never mutated after being appended, so rows can be shared
	pooled.Draws = make([][]float64, 0, total)
	for _, ch := range chains {
		pooled.Draws = append(pooled.Draws, ch.Draws...)
	}

	return pooled, nil
}

// Modalities counts the modalities with a monitored slope, intercept or std
// dev, assuming they are numbered 1..n
func (s *SampleSet) Modalities() int {
	n := 0
	for _, name := range s.Names {
		k, idx, err := model.ParseParamName(name)
		if err != nil || !k.PerModality() {
			continue
		}
		if idx > n {
			n = idx
		}
	}
	return n
}
