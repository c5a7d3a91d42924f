// Package errors provides the coded error type shared by the CLI and the
// HTTP API.
//
// Every failure a user can cause carries a [Code]: a malformed packed
// record is INVALID_FORMAT, a shape naming a missing pivot is
// INVALID_REFERENCE, a missing library document is NOT_FOUND. Each code
// knows the HTTP status the API answers with, so handlers never map errors
// by hand.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "field %d: not an integer", i)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // Report a malformed record
//	}
//
//	err = errors.Wrap(errors.ErrCodeInvalidReference, frameErr, "shape %d", i)
//	status := errors.HTTPStatus(err) // 400
//
// Errors without a code are internal failures: [GetCode] returns "" and
// [HTTPStatus] returns 500.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
)

// Code represents a machine-readable error code.
type Code string

// Error codes.
const (
	// Caller mistakes
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidReference Code = "INVALID_REFERENCE"
	ErrCodeInvalidName      Code = "INVALID_NAME"
	ErrCodeNotFound         Code = "NOT_FOUND"

	// Server side
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
)

var statuses = map[Code]int{
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidFormat:    http.StatusBadRequest,
	ErrCodeInvalidReference: http.StatusBadRequest,
	ErrCodeInvalidName:      http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeTimeout:          http.StatusGatewayTimeout,
	ErrCodeUnsupported:      http.StatusNotImplemented,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// Codes returns every defined code, sorted.
func Codes() []Code {
	out := make([]Code, 0, len(statuses))
	for c := range statuses {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Status returns the HTTP status for c. Unknown codes map to 500.
func (c Code) Status() int {
	if s, ok := statuses[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Client reports whether c describes a caller mistake (a 4xx status).
func (c Code) Client() bool {
	s := c.Status()
	return s >= 400 && s < 500
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code and a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode returns the code of the outermost coded error in err's chain, or
// "" when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost coded error, or
// err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus returns the status the API answers err with.
func HTTPStatus(err error) int {
	return GetCode(err).Status()
}
