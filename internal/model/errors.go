package model

import (
	"errors"
	"fmt"
)

// Admission and lookup errors reported synchronously to callers.
var (
	// ErrAlreadyActive is returned when a session submits a second job while
	// its previous job is still non-terminal.
	ErrAlreadyActive = errors.New("session already has an active recognition job")

	// ErrCapacityExceeded is returned when the configured ceiling of
	// concurrently admitted jobs is reached.
	ErrCapacityExceeded = errors.New("maximum number of concurrent recognition jobs reached")

	// ErrNoActiveJob is returned by status and abort calls against an unknown
	// or already-evicted session.
	ErrNoActiveJob = errors.New("session does not have an active recognition job")
)

// ValidationError describes a request rejected before any job was admitted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
