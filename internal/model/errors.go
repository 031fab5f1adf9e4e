package model

import (
	"errors"
	"fmt"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
)

// Sentinel model errors.
var (
	// ErrInvalidDataSet is returned by the data set factory when no variant
	// rule matches the input.
	ErrInvalidDataSet = fmt.Errorf("invalid data set: %w", common.ErrValidation)
	// ErrAbstractInstantiation signals a programming error.
	ErrAbstractInstantiation = errors.New("abstract instantiation")
)

// DomainError is a model error with context.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// NewDomainError creates a new domain error.
func NewDomainError(kind error, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// ValidationErrors collects field problems found by Validate methods.
type ValidationErrors struct {
	Errors []common.FieldError
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d error(s)", len(e.Errors))
}

func (e *ValidationErrors) Unwrap() error {
	return common.ErrValidation
}

// Add appends a field problem.
func (e *ValidationErrors) Add(path, message string) {
	e.Errors = append(e.Errors, common.FieldError{Path: path, Message: message})
}

// Merge appends the field errors of err under prefix, or a single entry when
// err carries no field detail.
func (e *ValidationErrors) Merge(prefix string, err error) {
	if err == nil {
		return
	}
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		for _, fe := range verr.Errors {
			fe.Path = prefix + trimRoot(fe.Path)
			e.Errors = append(e.Errors, fe)
		}
		return
	}
	e.Add(prefix, err.Error())
}

// OrNil returns nil if no errors were collected.
func (e *ValidationErrors) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

func trimRoot(path string) string {
	if len(path) > 0 && path[0] == '$' {
		return path[1:]
	}
	return path
}
