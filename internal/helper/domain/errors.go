package helper

import (
	"errors"
	"fmt"
)

// ErrHelperNotFound is returned when a slug does not resolve to a helper.
var ErrHelperNotFound = errors.New("helper: not found")

// ErrSlugConflict is returned when a created helper's slug is already taken.
var ErrSlugConflict = errors.New("helper: slug already in use")

// ValidationError reports malformed caller input.
type ValidationError struct {
	Reason string
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "helper: " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
