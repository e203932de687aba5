package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure of the verification pipeline or the ledger.
// The string value is what the HTTP layer reports as errorType.
type ErrorKind string

const (
	KindInvalidURL     ErrorKind = "invalid_url"
	KindNotFound       ErrorKind = "not_found"
	KindHidden         ErrorKind = "hidden"
	KindNotOwner       ErrorKind = "not_owner"
	KindIdentityLookup ErrorKind = "identity_lookup_failed"
	KindFetch          ErrorKind = "fetch_failed"
)

// Error is raised by the component where the failure originates and is
// returned unchanged by every layer above it.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, ErrHidden) works for any
// hidden error regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidURL     = &Error{Kind: KindInvalidURL, Msg: "invalid URL format"}
	ErrNotFound       = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrHidden         = &Error{Kind: KindHidden, Msg: "gift is hidden in profile"}
	ErrNotOwner       = &Error{Kind: KindNotOwner, Msg: "you are not the owner"}
	ErrIdentityLookup = &Error{Kind: KindIdentityLookup, Msg: "identity lookup failed"}
	ErrFetch          = &Error{Kind: KindFetch, Msg: "page fetch failed"}
)

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error of the given kind around a cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of err, or false if err is not a pipeline error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
