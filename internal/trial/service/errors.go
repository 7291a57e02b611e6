package service

import (
	"errors"
	"fmt"

	"github.com/aarnav1729/sample-trials/internal/trial/repository"
)

// Failure taxonomy of the command layer. All of these are caller-input
// problems detected before any mutation; none are retriable.
var (
	// ErrNotFound mirrors the repository sentinel for unknown request ids.
	ErrNotFound = repository.ErrNotFound

	// ErrForbidden means the actor's role does not own the current stage.
	ErrForbidden = errors.New("actor role does not own the current stage")

	// ErrInvalidTransition means the command is not applicable to the
	// request's current status (stale UI, double submission).
	ErrInvalidTransition = errors.New("command not applicable to current status")
)

// ValidationError reports a missing or invalid payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required"}
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
