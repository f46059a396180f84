package shared

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrRuleViolation indicates a request that breaks a business rule.
	ErrRuleViolation = errors.New("rule violation")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a missing, expired or revoked bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// Error pairs an error kind with the message shown to API clients.
type Error struct {
	kind    error
	cause   error
	message string
}

func (e *Error) Error() string {
	return e.message
}

// Unwrap exposes both the kind and the optional cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// NotFound builds a not-found error carrying a public message.
func NotFound(message string) error {
	return &Error{kind: ErrNotFound, message: message}
}

// Violation builds a business-rule error carrying a public message.
func Violation(message string) error {
	return &Error{kind: ErrRuleViolation, message: message}
}

// WrapViolation is Violation with a sentinel cause kept for errors.Is.
func WrapViolation(cause error, message string) error {
	return &Error{kind: ErrRuleViolation, cause: cause, message: message}
}

// ValidationError carries field level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError is a shortcut for a single failing field.
func FieldError(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// Add appends a message for field.
func (v *ValidationError) Add(field, message string) {
	v.Fields[field] = append(v.Fields[field], message)
}

// Merge copies messages from other into v.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		v.Fields[field] = append(v.Fields[field], msgs...)
	}
}

// Empty reports whether no field failed.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns nil when no field failed so callers can return it directly.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for field := range v.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}
