package domain

import "errors"

// Error kinds. Every error surfaced by the auth service wraps exactly one of these.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)

// Store-level errors returned by user repositories.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// Token validation errors.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Error carries a client-safe message together with its kind and, for
// internal failures, the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(msg string) *Error { return &Error{Kind: ErrValidation, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: ErrConflict, Message: msg} }

func Unauthorized(msg string) *Error { return &Error{Kind: ErrUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: ErrForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: ErrNotFound, Message: msg} }

func TooManyRequests(msg string) *Error { return &Error{Kind: ErrTooManyRequests, Message: msg} }

// Internal wraps an unexpected failure. msg is what clients see; err is only logged.
func Internal(msg string, err error) *Error {
	return &Error{Kind: ErrInternal, Message: msg, Err: err}
}
