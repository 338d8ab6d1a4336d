package model

import (
	"github.com/pkg/errors"
)

// The error taxonomy shared by every package. Callers wrap these with
// errors.Wrapf to name the modality, parameter, or chain involved, and test
// for them with errors.Is.
var (
	// ErrInvalidConfiguration is a malformed prior, colliding seeds, a
	// non-positive thinning interval or any other bad setting.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch is a disagreement between data and model shape.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrConvergenceFailure is reported when chain mixing diagnostics fail.
	// Depending on the sampler policy it is a warning or fatal.
	ErrConvergenceFailure = errors.New("convergence failure")

	// ErrInsufficientSamples is returned by the comparator for an empty
	// pooled sample set.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrInvalidParameterRequest is an out-of-range modality index, an
	// unknown parameter kind or a self comparison.
	ErrInvalidParameterRequest = errors.New("invalid parameter request")

	// ErrCancelled is returned when sampling is aborted through its context.
	ErrCancelled = errors.New("cancelled")
)

// configErrorf wraps ErrInvalidConfiguration with a formatted message
func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}

// dimErrorf wraps ErrDimensionMismatch with a formatted message
func dimErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrDimensionMismatch, format, args...)
}
