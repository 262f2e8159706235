package database

import (
	"errors"
	"fmt"
)

// Store errors
var (
	// ErrNotFound is matched by every lookup failure, see NotFoundError.
	ErrNotFound = errors.New("todo not found")

	// ErrValidation is matched by every rejected payload, see ValidationError.
	ErrValidation = errors.New("invalid todo")

	// ErrTaskRequired is returned when the task text is missing or blank.
	ErrTaskRequired = &ValidationError{Field: "task", Message: "The 'task' field is required."}

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// NotFoundError reports the id that could not be found.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Todo %d doesn't exist", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
