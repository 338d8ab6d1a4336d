package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies one of the model's parameter families.
type Kind int

// Parameter kinds. Slope, Intercept and StdDev are per modality and are the
// parameters monitored by default. Latent values are per subject.
const (
	Slope Kind = iota
	Intercept
	StdDev
	Precision
	Latent
)

// kindInfo is the name, symbol, and ideal value for a parameter kind
var kindInfo = []struct {
	name   string
	symbol string
	ideal  float64
}{
	Slope:     {"slope", "a", 1},
	Intercept: {"intercept", "b", 0},
	StdDev:    {"stddev", "s", 0},
	Precision: {"precision", "tau", 0},
	Latent:    {"latent", "x", 0},
}

// DefaultMonitor is the parameter kinds kept from each draw when the caller
// does not say otherwise.
var DefaultMonitor = []Kind{Slope, Intercept, StdDev}

// ParseKind accepts either the long name ("slope") or the symbol ("a")
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, info := range kindInfo {
		if s == info.name || s == info.symbol {
			return Kind(k), nil
		}
	}
	if s == "sd" || s == "sigma" {
		return StdDev, nil
	}
	return 0, errors.Wrapf(ErrInvalidParameterRequest, "unknown parameter kind %q", s)
}

// Valid is true for a known kind
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindInfo)
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindInfo[k].name
}

// Symbol is the short name used in parameter names (a, b, s, tau, x)
func (k Kind) Symbol() string {
	if !k.Valid() {
		return "?"
	}
	return kindInfo[k].symbol
}

// Ideal is the value the parameter takes for a perfect modality: 1 for the
// slope and 0 for the intercept and residual noise.
func (k Kind) Ideal() float64 {
	if !k.Valid() {
		return 0
	}
	return kindInfo[k].ideal
}

// PerModality is false only for latent values, which are per subject
func (k Kind) PerModality() bool {
	return k != Latent
}

// ParamName is the name of a parameter with a 1-based index, e.g. a[2]
func ParamName(k Kind, index int) string {
	return k.Symbol() + "[" + strconv.Itoa(index) + "]"
}

// ParseParamName splits a name like "s[3]" into its kind and 1-based index
func ParseParamName(name string) (Kind, int, error) {
	open := strings.IndexByte(name, '[')
	if open < 1 || !strings.HasSuffix(name, "]") {
		return 0, 0, errors.Wrapf(ErrInvalidParameterRequest, "malformed parameter name %q", name)
	}

	k, err := ParseKind(name[:open])
	if err != nil {
		return 0, 0, err
	}

	idx, err := strconv.Atoi(name[open+1 : len(name)-1])
	if err != nil || idx < 1 {
		return 0, 0, errors.Wrapf(ErrInvalidParameterRequest, "malformed index in parameter name %q", name)
	}

	return k, idx, nil
}
