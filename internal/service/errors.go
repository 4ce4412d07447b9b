// Package service provides application-level services for exam attempts,
// spaced repetition, streaks and quotas.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrQuotaExceeded indicates a free-tier learner has used up the
	// monthly attempt allowance for the skill.
	// API layer should map this to HTTP 429 Too Many Requests.
	ErrQuotaExceeded = errors.New("monthly attempt quota exceeded")

	// ErrPremiumRequired indicates the skill is only available to
	// premium subscribers.
	// API layer should map this to HTTP 403 Forbidden.
	ErrPremiumRequired = errors.New("premium subscription required")

	// ErrNotOwned indicates a resource is owned by a different learner
	// than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another learner")
)

// ServiceError is a custom error type for service errors with operation context.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
