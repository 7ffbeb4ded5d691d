// Package errors provides coded domain errors shared by the services, the GraphQL layer and the REST API.
//
// Services return typed errors:
//
//	if !viewer.Authenticated() {
//	    return nil, errors.Unauthenticated("You need to be logged in!")
//	}
//
// Transports read the code and the public message:
//
//	status := errors.CodeOf(err).HTTPStatus()
//	msg := errors.PublicMessage(err)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeValidation      Code = "VALIDATION"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GraphQLCode returns the value reported in a GraphQL error's extensions.code.
// The names follow the conventions GraphQL clients already understand.
func (c Code) GraphQLCode() string {
	switch c {
	case CodeUnauthenticated:
		return "UNAUTHENTICATED"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeAlreadyExists:
		return "CONFLICT"
	case CodeValidation:
		return "BAD_USER_INPUT"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, never sent to clients
}

// Error implements the error interface.
// The cause is included so logs carry the full chain; transports use Message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// ErrInternal is the public face of every failure without a domain code.
var ErrInternal = &Error{Code: CodeInternal, Message: "internal server error"}

// Unauthenticated creates an authentication error.
// The message is shown to callers, so keep it generic.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// CodeOf returns the domain code carried by err, or CodeInternal when err
// is not a domain error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// PublicMessage returns the message that is safe to show to a caller.
// Non-domain errors collapse to a generic message so store details never leak.
func PublicMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ErrInternal.Message
}
