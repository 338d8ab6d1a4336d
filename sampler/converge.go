package sampler

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
)

// Diagnose computes the split R-hat of every monitored parameter: each
// chain's convergence window is cut in half and all the halves are compared.
// Parameters whose windows never filled get NaN and an entry in the
// returned problems.
func Diagnose(chains []*Chain) (map[string]float64, []error) {
	if len(chains) < 1 {
		return nil, []error{errors.Wrapf(model.ErrInsufficientSamples, "no chains to diagnose")}
	}

	names := chains[0].Samples.Names
	rhat := make(map[string]float64, len(names))
	var problems []error

	for p, name := range names {
		seqs := make([][]float64, 0, 2*len(chains))
		for _, ch := range chains {
			first, second := ch.Halves(p)
			if first == nil {
				break
			}
			seqs = append(seqs, first, second)
		}
		if len(seqs) != 2*len(chains) {
			rhat[name] = math.NaN()
			problems = append(problems, errors.Wrapf(model.ErrInsufficientSamples,
				"%s: convergence window did not fill", name))
			continue
		}

		r, err := posterior.GelmanRubin(seqs)
		if err != nil {
			rhat[name] = math.NaN()
			problems = append(problems, errors.Wrapf(err, "%s", name))
			continue
		}
		rhat[name] = r
	}

	return rhat, problems
}

// Unconverged lists, in order, the parameters whose R-hat is above limit
// (an infinite R-hat included)
func Unconverged(names []string, rhat map[string]float64, limit float64) []string {
	var bad []string
	for _, n := range names {
		r, ok := rhat[n]
		if ok && !math.IsNaN(r) && r > limit {
			bad = append(bad, n)
		}
	}
	return bad
}
