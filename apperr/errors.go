// Package apperr holds the error taxonomy shared by both services and its
// mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned when request input fails validation.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when a user with the same email already exists.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned when a request carries no verified subject.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a record does not exist for the requesting owner.
	ErrNotFound = errors.New("resource not found")
	// ErrStoreFailure wraps persistence errors that must not leak to clients.
	ErrStoreFailure = errors.New("store failure")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level validation failures.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a failure for the given field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Store wraps a persistence error with the operation that produced it.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}

var kinds = []error{
	ErrStoreFailure,
	ErrDuplicateEmail,
	ErrInvalidCredentials,
	ErrNotFound,
	ErrUnauthorized,
	ErrValidation,
}

// Kind returns the taxonomy sentinel that err belongs to, or nil if none.
// Errors returned through the service container lose their chain and arrive
// as text, so the sentinel message is matched as a fallback.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	msg := err.Error()
	for _, kind := range kinds {
		if strings.Contains(msg, kind.Error()) {
			return kind
		}
	}
	return nil
}
