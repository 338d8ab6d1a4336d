package posterior

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/nogold/model"
)

// Comparison is the estimated probability that modality I's parameter is
// closer to the ideal value Omega than modality J's. Reverse is the same
// estimate with I and J swapped and Ties the fraction of draws where both
// were equally close, so Probability + Reverse + Ties == 1.
type Comparison struct {
	Kind        model.Kind
	I, J        int
	Omega       float64
	Probability float64
	Reverse     float64
	Ties        float64
	Samples     int
}

// StdErr is the Monte Carlo standard error of Probability, ignoring
// autocorrelation between draws
func (c Comparison) StdErr() float64 {
	if c.Samples < 1 {
		return math.NaN()
	}
	p := c.Probability
	return math.Sqrt(p * (1 - p) / float64(c.Samples))
}

// String prints the record as (kind, i, j, omega, probability)
func (c Comparison) String() string {
	return fmt.Sprintf("(%s, %d, %d, %g, %.4f)", c.Kind, c.I, c.J, c.Omega, c.Probability)
}

// Comparator answers "which modality is better" queries against a pooled
// sample set. It never modifies the set, so concurrent queries are safe as
// long as nobody else mutates it.
type Comparator struct {
	samples    *SampleSet
	modalities int
}

// NewComparator wraps a pooled sample set. A modalities value below 1 takes
// the count from the set's parameter names.
func NewComparator(pooled *SampleSet, modalities int) (*Comparator, error) {
	if pooled == nil {
		return nil, errors.Wrapf(model.ErrInsufficientSamples, "no sample set supplied")
	}
	if modalities < 1 {
		modalities = pooled.Modalities()
	}
	return &Comparator{samples: pooled, modalities: modalities}, nil
}

// Modalities is the number of modalities the comparator accepts
func (c *Comparator) Modalities() int {
	return c.modalities
}

// columns validates a request and returns the two columns to compare
func (c *Comparator) columns(kind model.Kind, i, j int) (int, int, error) {
	if kind != model.Slope && kind != model.Intercept && kind != model.StdDev {
		return 0, 0, errors.Wrapf(model.ErrInvalidParameterRequest, "can not compare modalities on %s", kind)
	}
	if i == j {
		return 0, 0, errors.Wrapf(model.ErrInvalidParameterRequest, "modality %d compared with itself", i)
	}
	for _, m := range []int{i, j} {
		if m < 1 || m > c.modalities {
			return 0, 0, errors.Wrapf(model.ErrInvalidParameterRequest,
				"modality %d out of range [1, %d]", m, c.modalities)
		}
	}

	if c.samples.Len() == 0 {
		return 0, 0, errors.Wrapf(model.ErrInsufficientSamples, "comparing %s for modalities %d and %d", kind, i, j)
	}

	ci, err := c.samples.Index(model.ParamName(kind, i))
	if err != nil {
		return 0, 0, err
	}
	cj, err := c.samples.Index(model.ParamName(kind, j))
	if err != nil {
		return 0, 0, err
	}
	return ci, cj, nil
}

// Compare returns the fraction of pooled draws in which modality i's
// parameter is strictly closer to omega than modality j's. Ties count for
// neither side, so Compare(k,i,j,w) + Compare(k,j,i,w) <= 1.
func (c *Comparator) Compare(kind model.Kind, i, j int, omega float64) (float64, error) {
	res, err := c.Contrast(kind, i, j, omega)
	if err != nil {
		return 0, err
	}
	return res.Probability, nil
}

// Contrast performs Compare in both directions in a single pass
func (c *Comparator) Contrast(kind model.Kind, i, j int, omega float64) (Comparison, error) {
	ci, cj, err := c.columns(kind, i, j)
	if err != nil {
		return Comparison{}, err
	}

	better, worse, ties := 0, 0, 0
	for n, d := range c.samples.Draws {
		if !finite(d[ci]) || !finite(d[cj]) {
			return Comparison{}, errors.Wrapf(model.ErrInsufficientSamples,
				"draw %d of %s for modalities %d and %d is not finite", n+1, kind, i, j)
		}
		dx := math.Abs(d[ci] - omega)
		dy := math.Abs(d[cj] - omega)
		switch {
		case dx < dy:
			better++
		case dy < dx:
			worse++
		default:
			ties++
		}
	}

	total := float64(c.samples.Len())
	return Comparison{
		Kind:        kind,
		I:           i,
		J:           j,
		Omega:       omega,
		Probability: float64(better) / total,
		Reverse:     float64(worse) / total,
		Ties:        float64(ties) / total,
		Samples:     c.samples.Len(),
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// All compares every ordered pair of modalities for one parameter kind
func (c *Comparator) All(kind model.Kind, omega float64) ([]Comparison, error) {
	out := make([]Comparison, 0, c.modalities*(c.modalities-1))
	for i := 1; i <= c.modalities; i++ {
		for j := 1; j <= c.modalities; j++ {
			if i == j {
				continue
			}
			res, err := c.Contrast(kind, i, j, omega)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
	}
	return out, nil
}
