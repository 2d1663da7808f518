// Package apperr defines the typed failures shared by the booking core,
// the services and the HTTP layer.  Every failure carries a Kind so that
// handlers can translate it into a distinct status code and error token.
// Sentinel values (ErrNotFound, ErrConflict, ...) match any *Error of the
// same kind through errors.Is, so callers can attach a message without
// losing the classification.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.  The string value is the token returned to
// API clients in the "error" field.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindUnavailable   Kind = "unavailable"
	KindConflict      Kind = "conflict"
	KindForbidden     Kind = "forbidden"
	KindInvalidStatus Kind = "invalid_status"
	KindValidation    Kind = "validation_error"
)

// Error is a classified application failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrUnavailable   = &Error{Kind: KindUnavailable}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrInvalidStatus = &Error{Kind: KindInvalidStatus}
	ErrValidation    = &Error{Kind: KindValidation}
)

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(format string, args ...any) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidStatus(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidStatus, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is not classified (an internal failure).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
