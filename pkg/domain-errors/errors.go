// Package domainerrors defines coded errors that carry a stable machine-readable
// code from the service layer to the transport layer.
//
// Stores return sentinel errors (pkg/platform/sentinel). Services translate
// those into coded errors with New or Wrap. Handlers render them with
// httputil.WriteError, which maps the code to an HTTP status.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is a stable error identifier rendered as the "error" field on the wire.
type Code string

const (
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Request lifecycle codes.
	CodeUnknownAction          Code = "unknown_action"
	CodeInvalidTransition      Code = "invalid_transition"
	CodeAlreadyTerminal        Code = "already_terminal"
	CodeConcurrentModification Code = "concurrent_modification"
)

// Error is a coded error. Err holds the underlying cause, if any.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with a client-safe message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
// The cause stays reachable through errors.Is / errors.As.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost coded error in the chain,
// or CodeInternal when the chain carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost coded error in the chain has code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Retryable reports whether the client may retry the same command unchanged.
func Retryable(code Code) bool {
	return code == CodeConcurrentModification || code == CodeTimeout
}

// ToHTTPStatus maps a code to the HTTP status used in responses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeUnknownAction:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition, CodeAlreadyTerminal, CodeConcurrentModification:
		return http.StatusConflict
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
