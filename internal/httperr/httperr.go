// Package httperr defines the classified errors that handlers and middleware
// return to short-circuit a request with a known HTTP status.
package httperr

import (
	"net/http"
	"strings"
)

// Error is an error that maps to a specific HTTP status.
// Anything that is not an *Error is treated as an unexpected failure.
type Error struct {
	Status int
	Code   string
	// Err is the underlying cause. It is logged, never sent to the client.
	Err error
}

// Error returns the status text, optionally followed by the cause.
func (e *Error) Error() string {
	msg := http.StatusText(e.Status)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error for the given status with an optional cause.
func New(status int, cause error) *Error {
	return &Error{
		Status: status,
		Code:   codeFor(status),
		Err:    cause,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(cause error) *Error {
	return New(http.StatusUnauthorized, cause)
}

// NotFound creates a 404 error.
func NotFound(cause error) *Error {
	return New(http.StatusNotFound, cause)
}

// BadRequest creates a 400 error.
func BadRequest(cause error) *Error {
	return New(http.StatusBadRequest, cause)
}

// codeFor converts a status into an UPPER_CASE_WITH_UNDERSCORES code.
//
//	401 -> "UNAUTHORIZED"
func codeFor(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
