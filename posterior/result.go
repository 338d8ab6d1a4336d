package posterior

import (
	"github.com/pkg/errors"

	"github.com/CraigKelly/nogold/model"
)

// Result is the output of one sampler run: the retained draws of every chain
// in draw order, plus informational summaries and diagnostics.
type Result struct {
	RunID      string
	Modalities int
	Chains     []*SampleSet       // Chains[c] is chain c+1
	Summary    []Summary          // Summaries of the pooled draws
	Rhat       map[string]float64 // Split R-hat per monitored parameter
	Warnings   []error            // Non-fatal ConvergenceFailure reports
}

// Pooled concatenates every chain's draws
func (r *Result) Pooled() (*SampleSet, error) {
	return Pool(r.Chains)
}

// Comparator pools the chains and wraps them for comparisons
func (r *Result) Comparator() (*Comparator, error) {
	pooled, err := r.Pooled()
	if err != nil {
		return nil, err
	}
	return NewComparator(pooled, r.Modalities)
}

// Summarize fills Summary from the pooled draws, attaching any R-hat values
func (r *Result) Summarize() error {
	pooled, err := r.Pooled()
	if err != nil {
		return err
	}

	r.Summary, err = Summarize(pooled)
	if err != nil {
		return err
	}
	for i := range r.Summary {
		if rh, ok := r.Rhat[r.Summary[i].Name]; ok {
			r.Summary[i].Rhat = rh
		}
	}
	return nil
}

// Lookup returns the summary for a named parameter
func (r *Result) Lookup(name string) (Summary, error) {
	for _, s := range r.Summary {
		if s.Name == name {
			return s, nil
		}
	}
	return Summary{}, errors.Wrapf(model.ErrInvalidParameterRequest, "no summary for %s", name)
}

// Converged is true when no convergence warnings were raised
func (r *Result) Converged() bool {
	return len(r.Warnings) == 0
}
