package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error below matches exactly one of these through
// errors.Is, so callers can branch on the kind without type assertions.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// ValidationError reports malformed or out-of-range input on a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports that the referenced record does not exist. Key is the
// lookup value (id, username or email).
type NotFoundError struct {
	Resource string
	Key      string
}

func NewUserNotFound(key string) *NotFoundError {
	return &NotFoundError{Resource: "user", Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a uniqueness violation. Field is "username" or "email".
type ConflictError struct {
	Field string
	Value string
}

func NewConflictError(field, value string) *ConflictError {
	return &ConflictError{Field: field, Value: value}
}

func (e *ConflictError) Error() string {
	if e.Value == "" {
		return e.Field + " already exists"
	}
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InternalError wraps an unexpected storage failure. Op names the service
// operation that failed; Err keeps the cause for logs only.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// IsDomainError reports whether err is one of the kinds that carry business
// meaning and must reach the caller unchanged.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
