package core

import (
	"errors"
	"strings"
)

// ErrorKind classifies a failure so callers can dispatch without inspecting
// message text.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindStorage    ErrorKind = "storage"
)

// Error is the single error type crossing the service boundary: a kind, a
// message, and for validation failures the per-field detail list.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return e.Message + ": " + strings.Join(e.Fields, ", ")
	}
	return e.Message
}

// NewValidationError builds a validation failure carrying one message per
// violated field.
func NewValidationError(fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation Error", Fields: fields}
}

// NewNotFoundError reports a missing record.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewConflictError reports an identifier collision.
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewStorageError reports an unclassified persistence failure.
func NewStorageError(message string) *Error {
	return &Error{Kind: KindStorage, Message: message}
}

// KindOf returns the kind of err, or KindStorage for anything that is not a
// classified *Error. Uncategorized failures are treated as storage failures
// so no raw error ever decides an HTTP status.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsKind reports whether err is a classified *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
