// Package apperr defines the domain error kinds shared by the store, the
// services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("unavailable")
	ErrUpstream    = errors.New("upstream failure")
)

// CodeValidation is the symbolic code used for every request validation failure.
const CodeValidation = "validation_error"

// Error is a domain error carrying a kind (one of the sentinels above),
// a symbolic code for API clients and a human readable message.
type Error struct {
	Kind    error
	Code    string
	Message string
	// Details holds per-field reasons for validation errors.
	Details error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Kind }

// NotFound returns an ErrNotFound error with the given code.
func NotFound(code, msg string) *Error {
	return &Error{Kind: ErrNotFound, Code: code, Message: msg}
}

// Conflict returns an ErrConflict error with the given code.
func Conflict(code, msg string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: msg}
}

// Invalid returns an ErrValidation error with a specific code.
func Invalid(code, msg string) *Error {
	return &Error{Kind: ErrValidation, Code: code, Message: msg}
}

// Validation wraps the result of an ozzo Validate call. A nil err yields nil.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrValidation, Code: CodeValidation, Message: err.Error(), Details: err}
}

// Unavailable returns an ErrUnavailable error with the given code.
func Unavailable(code, msg string) *Error {
	return &Error{Kind: ErrUnavailable, Code: code, Message: msg}
}

// Upstream wraps a failure of an external dependency.
func Upstream(code string, err error) *Error {
	return &Error{Kind: ErrUpstream, Code: code, Message: err.Error()}
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
