package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an operational error. Anything that is not an *Error is
// treated as unexpected by the HTTP error handler.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidCredentials
	KindInvalidOrExpiredToken
	KindPageOutOfRange
	KindConflict
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case KindPageOutOfRange:
		return "page_out_of_range"
	case KindConflict:
		return "conflict"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is an expected, caller-facing failure with a stable message.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Status maps the kind onto an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInvalidOrExpiredToken:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound, KindPageOutOfRange:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors.Is checks.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrUnauthenticated       = &Error{Kind: KindUnauthenticated}
	ErrForbidden             = &Error{Kind: KindForbidden}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials}
	ErrInvalidOrExpiredToken = &Error{Kind: KindInvalidOrExpiredToken}
	ErrPageOutOfRange        = &Error{Kind: KindPageOutOfRange}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrConfig                = &Error{Kind: KindConfig}
)

func Validation(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func InvalidCredentials(msg string) *Error {
	return &Error{Kind: KindInvalidCredentials, Message: msg}
}

func InvalidOrExpiredToken(msg string) *Error {
	return &Error{Kind: KindInvalidOrExpiredToken, Message: msg}
}

func PageOutOfRange(msg string) *Error {
	return &Error{Kind: KindPageOutOfRange, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Config(msg string, err error) *Error {
	return &Error{Kind: KindConfig, Message: msg, Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsOperational reports whether err is safe to surface to the caller verbatim.
// Config errors are startup-only and never considered operational at request time.
func IsOperational(err error) bool {
	e, ok := As(err)
	return ok && e.Kind != KindConfig
}
