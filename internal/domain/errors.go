package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")

	// ErrCredentialConflict: the permanent credential of an upgrade is
	// already bound to a different identity.
	ErrCredentialConflict = errors.New("credential already bound to another identity")

	// ErrBusy: a search is already in flight for the workspace.
	ErrBusy = errors.New("workspace busy")
	// ErrQueueFull: the pending-query queue of an unbound workspace is full.
	ErrQueueFull = errors.New("request queue full")
)

// Generation failure kinds. A *GenerationError unwraps to exactly one of them.
var (
	ErrConfiguration     = errors.New("generation backend not configured")
	ErrTransport         = errors.New("generation transport failure")
	ErrTimeout           = errors.New("generation timed out")
	ErrMalformedResponse = errors.New("malformed generation response")
)

// GenerationError is the typed failure returned by the generation adapters.
type GenerationError struct {
	Kind     error
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewGenerationError builds a GenerationError of the given kind.
func NewGenerationError(provider string, kind, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Provider: provider, Err: cause}
}

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
