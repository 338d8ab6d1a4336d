package model

import (
	"math"
)

// The deterministic nodes of the model. The likelihood is written in terms
// of precision (tau = 1/s^2) because that is what the conjugate updates
// need, while users reason about the residual standard deviation s. Both
// directions are kept here so the conversion happens in exactly one place.

// Mean is the linear observation model: mu = a*x + b
func Mean(a, b, x float64) float64 {
	return a*x + b
}

// TauToSigma converts a precision to a standard deviation: s = sqrt(1/tau).
// Non-positive precision has no standard deviation and returns NaN.
func TauToSigma(tau float64) float64 {
	if tau <= 0 {
		return math.NaN()
	}
	return math.Sqrt(1.0 / tau)
}

// SigmaToTau converts a standard deviation to a precision: tau = 1/s^2.
// Non-positive standard deviation returns NaN.
func SigmaToTau(s float64) float64 {
	if s <= 0 {
		return math.NaN()
	}
	return 1.0 / (s * s)
}
