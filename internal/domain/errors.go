package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	// Callers should not retry.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is applied to an
	// entity in a state that forbids it, such as submitting an answer
	// to a completed attempt. Not retryable.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput is returned for malformed client input: an option
	// that does not belong to the question, an out-of-range quality
	// rating, a negative count.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient is returned for storage contention that is safe to
	// retry with backoff at the operation boundary.
	ErrTransient = errors.New("transient storage error")

	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries the field that failed validation along with a
// human-readable message and the underlying sentinel.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
