package services

import (
	"errors"
	"fmt"
)

// Errors that cross the API boundary. Everything upstream-related stays
// internal and is absorbed by the fallback generator.
var (
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrBudgetExceeded = errors.New("daily ai budget exceeded")
)

// Internal-only signal for logging and breaker accounting.
var errUpstreamFailure = errors.New("upstream ai failure")

// ValidationError marks malformed or missing input data. It is distinct from
// a zero score: the caller must be able to tell "scored 0" from "could not
// score".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
