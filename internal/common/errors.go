// Package common defines shared constants and error kinds used across
// client and server layers. Callers should use errors.Is to match kinds.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error kinds produced by the sign-in engine. Every failure that leaves the
// engine carries exactly one of them.
var (
	// ErrValidation marks malformed user input (e.g. an email that fails the format check).
	ErrValidation = errors.New("validation error")
	// ErrNetwork marks missing connectivity with no usable local fallback.
	ErrNetwork = errors.New("network error")
	// ErrVerification marks an identity whose email address is not verified.
	ErrVerification = errors.New("verification error")
	// ErrAuth marks a rejection or failure reported by the identity provider.
	ErrAuth = errors.New("auth error")
	// ErrStorage marks a local persistence failure.
	ErrStorage = errors.New("storage error")
	// ErrInternal marks any other fault raised by a dependency.
	ErrInternal = errors.New("internal error")
)

// Error is a tagged error: Kind is one of the kind sentinels above, Message
// is the human-readable text shown to the user, Err the optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError returns an Error of the given kind without a cause.
func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError returns an Error of the given kind wrapping err.
func WrapError(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// KindOf returns the kind sentinel carried by err, or nil when err is nil or
// carries no kind.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
