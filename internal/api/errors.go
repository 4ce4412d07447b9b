package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lumalearn/luma-api/internal/domain"
	"github.com/lumalearn/luma-api/internal/service"
	"github.com/lumalearn/luma-api/internal/service/auth"
	"github.com/lumalearn/luma-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden
	case errors.Is(err, service.ErrPremiumRequired):
		return http.StatusForbidden

	// Quota errors
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusTooManyRequests

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	// Lifecycle conflicts
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict

	// Duplicate rows
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	// Default: internal server error (including domain.ErrTransient)
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this attempt"
	case errors.Is(err, service.ErrPremiumRequired):
		return "This skill requires a premium subscription"

	// Quota errors
	case errors.Is(err, service.ErrQuotaExceeded):
		return "Monthly attempt limit reached"

	// Not found errors
	case errors.Is(err, store.ErrLearnerNotFound):
		return "Learner not found"
	case errors.Is(err, store.ErrAttemptNotFound):
		return "Exam attempt not found"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, domain.ErrNotFound):
		return "Resource not found"

	// Lifecycle conflicts
	case errors.Is(err, domain.ErrInvalidState):
		return "Attempt is already completed"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation
// errors and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'StartExamRequest.Skill' Error:Field validation for 'Skill' failed on the 'oneof' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
