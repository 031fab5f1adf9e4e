package common

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// Infrastructure errors
var (
	ErrConnection = errors.New("connection error")
	ErrEncoding   = errors.New("encoding error")
	ErrProtocol   = errors.New("protocol error")
)

// External errors
var (
	ErrTimeout     = errors.New("timeout")
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError provides field-level validation error details.
type ValidationError struct {
	Errors []FieldError
}

type FieldError struct {
	Path       string `json:"path"`
	Message    string `json:"message"`
	SchemaPath string `json:"schema_path,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d error(s)", len(e.Errors))
}

// Unwrap lets errors.Is(err, ErrValidation) match field-level failures.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// StatusKind classifies an error into one of the sentinel kinds above.
// Unknown errors map to nil.
func StatusKind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrTimeout, ErrUnavailable, ErrConnection, ErrProtocol, ErrEncoding} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
