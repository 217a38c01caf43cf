package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no task matches the id for the owner.
	ErrNotFound = errors.New("task not found")
	// ErrUnauthenticated is returned when a credential cannot be verified.
	ErrUnauthenticated = errors.New("could not validate credentials")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
