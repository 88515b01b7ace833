package util

import (
	"errors"
	"fmt"
)

// Kind classifies an error for logging and status mapping.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindConfig
	KindValidation
	KindUnauthorized
	KindNotFound
	KindStore
	KindSerialization
)

// String returns the kind name used in log records.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	case KindSerialization:
		return "serialization"
	default:
		return "internal"
	}
}

// Sentinel errors, one per kind, for errors.Is checks.
var (
	ErrInternal      = &Error{Kind: KindInternal}
	ErrConfig        = &Error{Kind: KindConfig}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrStore         = &Error{Kind: KindStore}
	ErrSerialization = &Error{Kind: KindSerialization}
)

// Error is the single error type used across the service.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg += " at " + e.Op
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NewConfigError creates a configuration error for the given field.
func NewConfigError(field, message string) *Error {
	return &Error{Kind: KindConfig, Op: field, Message: message}
}

// NewConfigErrorWithCause creates a configuration error wrapping cause.
func NewConfigErrorWithCause(field, message string, cause error) *Error {
	return &Error{Kind: KindConfig, Op: field, Message: message, Cause: cause}
}

// NewValidationError creates a validation error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewUnauthorizedError creates an authorization error.
func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NewNotFoundError creates a not-found error for a resource.
func NewNotFoundError(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Op: resource, Message: id}
}

// NewStoreError wraps a failure of the external store.
func NewStoreError(op string, cause error) *Error {
	return &Error{Kind: KindStore, Op: op, Cause: cause}
}

// NewSerializationError wraps an encoding or decoding failure.
func NewSerializationError(op string, cause error) *Error {
	return &Error{Kind: KindSerialization, Op: op, Cause: cause}
}

// NewInternalError wraps an otherwise unclassified failure.
func NewInternalError(op string, cause error) *Error {
	return &Error{Kind: KindInternal, Op: op, Cause: cause}
}
