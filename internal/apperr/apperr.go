// Package apperr defines the error taxonomy surfaced by the ledger engine.
//
// Every engine operation returns either nil or an *Error whose Kind tells the caller how to
// present it. Store errors are translated with FromStorage.
package apperr

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitcircle/internal/storage"
)

// Kind classifies an error for presentation.
type Kind string

const (
	// KindValidation means caller-supplied data violates an invariant. Nothing was written.
	KindValidation Kind = "validation"

	// KindPermission means the caller is not allowed to perform the operation.
	KindPermission Kind = "permission"

	// KindIndexRequired means a read needs an index that does not exist yet.
	KindIndexRequired Kind = "index_required"

	// KindInvalidState means a lifecycle transition is not allowed from the current state.
	KindInvalidState Kind = "invalid_state"

	// KindNotFound means the referenced record does not exist.
	KindNotFound Kind = "not_found"

	// KindUnexpected is everything else.
	KindUnexpected Kind = "unexpected"
)

// Guidance returns the user-facing hint for a kind.
func (k Kind) Guidance() string {
	switch k {
	case KindValidation:
		return "Check the entered values and try again."
	case KindPermission:
		return "You do not have access to this record. Check the circle membership and access configuration."
	case KindIndexRequired:
		return "The database is missing a required index. Run the store migrations to create it."
	case KindInvalidState:
		return "This action is no longer available. Refresh to see the current state."
	case KindNotFound:
		return "The record no longer exists."
	default:
		return "Something went wrong. Try again or report the problem."
	}
}

// Error is an engine error with a kind and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, apperr.InvalidState("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New creates an error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Permission creates a KindPermission error.
func Permission(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// InvalidState creates a KindInvalidState error.
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// FromStorage translates a store error into the taxonomy. Errors that are already *Error
// pass through unchanged.
func FromStorage(err error, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return New(KindNotFound, message, err)
	case errors.Is(err, storage.ErrPermissionDenied):
		return New(KindPermission, message, err)
	case errors.Is(err, storage.ErrIndexRequired):
		return New(KindIndexRequired, message, err)
	case errors.Is(err, storage.ErrPreconditionFailed):
		return New(KindInvalidState, message, err)
	default:
		return New(KindUnexpected, message, err)
	}
}
