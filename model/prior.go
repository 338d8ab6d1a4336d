package model

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Family names a univariate distribution family usable as a prior.
type Family string

// Supported prior families. Parameterisations follow the precision
// convention used by BUGS-style samplers.
const (
	Normal  Family = "normal"  // P1 = mean, P2 = precision
	Gamma   Family = "gamma"   // P1 = shape, P2 = rate
	Beta    Family = "beta"    // P1 = alpha, P2 = beta
	Uniform Family = "uniform" // P1 = min, P2 = max
)

// Dist is a declarative univariate distribution: a family and its two
// parameters. It is pure configuration and is only turned into something
// that can be sampled by Distribution.
type Dist struct {
	Family Family  `yaml:"family"`
	P1     float64 `yaml:"p1"`
	P2     float64 `yaml:"p2"`
}

// NormalPrec is a normal distribution given its mean and precision
func NormalPrec(mean, precision float64) Dist {
	return Dist{Family: Normal, P1: mean, P2: precision}
}

// GammaRate is a gamma distribution given its shape and rate
func GammaRate(shape, rate float64) Dist {
	return Dist{Family: Gamma, P1: shape, P2: rate}
}

// BetaDist is a beta distribution on (0, 1)
func BetaDist(alpha, beta float64) Dist {
	return Dist{Family: Beta, P1: alpha, P2: beta}
}

// UniformDist is a uniform distribution on [min, max]
func UniformDist(min, max float64) Dist {
	return Dist{Family: Uniform, P1: min, P2: max}
}

// Check returns an error if the family is unknown or the parameters are
// outside their valid range.
func (d Dist) Check() error {
	if math.IsNaN(d.P1) || math.IsNaN(d.P2) || math.IsInf(d.P1, 0) || math.IsInf(d.P2, 0) {
		return configErrorf("%s has non-finite parameters", d)
	}

	switch d.Family {
	case Normal:
		if d.P2 <= 0 {
			return configErrorf("%s: precision must be > 0", d)
		}
	case Gamma, Beta:
		if d.P1 <= 0 || d.P2 <= 0 {
			return configErrorf("%s: both parameters must be > 0", d)
		}
	case Uniform:
		if d.P1 >= d.P2 {
			return configErrorf("%s: min must be < max", d)
		}
	default:
		return configErrorf("unknown distribution family %q", string(d.Family))
	}

	return nil
}

// Distribution returns the gonum distribution matching d, drawing random
// numbers from src. A nil src uses the gonum global source, which should
// only happen in tests.
func (d Dist) Distribution(src rand.Source) distuv.RandLogProber {
	switch d.Family {
	case Normal:
		return distuv.Normal{Mu: d.P1, Sigma: TauToSigma(d.P2), Src: src}
	case Gamma:
		return distuv.Gamma{Alpha: d.P1, Beta: d.P2, Src: src}
	case Beta:
		return distuv.Beta{Alpha: d.P1, Beta: d.P2, Src: src}
	case Uniform:
		return distuv.Uniform{Min: d.P1, Max: d.P2, Src: src}
	}
	panic(fmt.Sprintf("BUG: Distribution called on unchecked %v", d))
}

// InSupport is true when x has positive density under d
func (d Dist) InSupport(x float64) bool {
	switch d.Family {
	case Gamma:
		return x > 0
	case Beta:
		return x > 0 && x < 1
	case Uniform:
		return x >= d.P1 && x <= d.P2
	}
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// LogProb is the log density of x, -Inf outside the support
func (d Dist) LogProb(x float64) float64 {
	if !d.InSupport(x) {
		return math.Inf(-1)
	}
	return d.Distribution(nil).LogProb(x)
}

// Mean is the distribution's expected value
func (d Dist) Mean() float64 {
	switch d.Family {
	case Normal:
		return d.P1
	case Gamma:
		return d.P1 / d.P2
	case Beta:
		return d.P1 / (d.P1 + d.P2)
	case Uniform:
		return (d.P1 + d.P2) / 2
	}
	return math.NaN()
}

// String renders the distribution the way a BUGS model file would
func (d Dist) String() string {
	switch d.Family {
	case Normal:
		return fmt.Sprintf("dnorm(%g, %g)", d.P1, d.P2)
	case Gamma:
		return fmt.Sprintf("dgamma(%g, %g)", d.P1, d.P2)
	case Beta:
		return fmt.Sprintf("dbeta(%g, %g)", d.P1, d.P2)
	case Uniform:
		return fmt.Sprintf("dunif(%g, %g)", d.P1, d.P2)
	}
	return fmt.Sprintf("%s(%g, %g)", string(d.Family), d.P1, d.P2)
}

var bugsNames = map[string]Family{
	"dnorm":  Normal,
	"dgamma": Gamma,
	"dbeta":  Beta,
	"dunif":  Uniform,
}

// ParseDist reads a distribution in the form String writes, e.g.
// "dbeta(2, 5)". Family names ("beta(2, 5)") are accepted too.
func ParseDist(s string) (Dist, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	open := strings.IndexByte(s, '(')
	if open < 1 || !strings.HasSuffix(s, ")") {
		return Dist{}, configErrorf("malformed distribution %q", s)
	}

	name := strings.TrimSpace(s[:open])
	fam, ok := bugsNames[name]
	if !ok {
		fam = Family(name)
	}

	args := strings.Split(s[open+1:len(s)-1], ",")
	if len(args) != 2 {
		return Dist{}, configErrorf("distribution %q needs exactly 2 parameters", s)
	}
	var p [2]float64
	for i, a := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return Dist{}, configErrorf("distribution %q: bad parameter %q", s, a)
		}
		p[i] = v
	}

	d := Dist{Family: fam, P1: p[0], P2: p[1]}
	if err := d.Check(); err != nil {
		return Dist{}, err
	}
	return d, nil
}
