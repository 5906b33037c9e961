package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of application error.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"       // 404
	CodeValidation      Code = "VALIDATION"      // 400
	CodeUnauthenticated Code = "UNAUTHENTICATED" // 403 on the API, redirect on pages
	CodeConfiguration   Code = "CONFIGURATION"   // rendered as a message
	CodeInternal        Code = "INTERNAL"        // 500
)

// Error is a structured error carrying a code, an HTTP status and details.
type Error struct {
	Code    Code
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying driver error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NotFound reports a record that is absent or not owned by the caller.
// Both cases produce the same error on purpose.
func NotFound(entity string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]any{"entity": entity},
	}
}

// Validation reports bad or missing input.
func Validation(msg string) *Error {
	return &Error{
		Code:    CodeValidation,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

// ValidationField reports bad input on a single named field.
func ValidationField(field, msg string) *Error {
	return &Error{
		Code:    CodeValidation,
		Status:  http.StatusBadRequest,
		Message: msg,
		Details: map[string]any{"field": field},
	}
}

// Unauthenticated reports a missing or invalid session.
func Unauthenticated(msg string) *Error {
	return &Error{
		Code:    CodeUnauthenticated,
		Status:  http.StatusForbidden,
		Message: msg,
	}
}

// InvalidCredentials is returned by password login when the username or password is wrong.
func InvalidCredentials() *Error {
	return &Error{
		Code:    CodeUnauthenticated,
		Status:  http.StatusUnauthorized,
		Message: "username or password is incorrect",
	}
}

// Configuration reports a login method that is selected but not set up.
func Configuration(msg string) *Error {
	return &Error{
		Code:    CodeConfiguration,
		Status:  http.StatusOK,
		Message: msg,
	}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    CodeInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		cause:   err,
	}
}

// Is checks whether err is (or wraps) an *Error with the given code.
func Is(err error, code Code) bool {
	var aErr *Error
	if errors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}

// From normalises any error into an *Error. Unknown errors become INTERNAL.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var aErr *Error
	if errors.As(err, &aErr) {
		return aErr
	}
	return Internal(err)
}
