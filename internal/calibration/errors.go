package calibration

import (
	"errors"
	"fmt"
)

// ErrPHOutOfRange is wrapped by validation errors for pH values outside [1,14].
var ErrPHOutOfRange = errors.New("pH out of range")

// ValidationError reports a rejected user-supplied value. The operation that
// returned it made no change to the store.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParseError reports calibration data that could not be understood.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calibration parse error: %s: %v", e.Reason, e.Err)
	}
	return "calibration parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func phRangeError(ph float64) error {
	return &ValidationError{
		Field:  "pH",
		Value:  ph,
		Reason: fmt.Sprintf("must be between %g and %g", MinPH, MaxPH),
		Err:    ErrPHOutOfRange,
	}
}
