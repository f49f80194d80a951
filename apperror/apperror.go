// Package apperror carries the error taxonomy of the API and renders it over HTTP.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types
const (
	TypeValidation      = "VALIDATION_ERROR"
	TypeInvalidBody     = "INVALID_BODY"
	TypeUnauthenticated = "UNAUTHENTICATED"
	TypeForbidden       = "FORBIDDEN"
	TypeNotFound        = "NOT_FOUND"
	TypeConflict        = "CONFLICT"
	TypeUnprocessable   = "UNPROCESSABLE"
	TypeUpstream        = "UPSTREAM_ERROR"
)

// AppError is an error with an HTTP status and a message safe to show to the caller.
type AppError struct {
	Code    int          // HTTP status code
	Type    string       // one of the Type constants
	Message string       // shown to the caller
	Fields  []FieldError // validation only
	Err     error        // internal cause, never rendered
}

// FieldError is a field-level validation message.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Param  string `json:"param,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(code int, typ, message string, err error) *AppError {
	return &AppError{Code: code, Type: typ, Message: message, Err: err}
}

func Validation(message string, fields ...FieldError) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: TypeValidation, Message: message, Fields: fields}
}

func InvalidBody(err error) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: TypeInvalidBody, Message: "Invalid request body", Err: err}
}

func NotFound(what string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: TypeNotFound, Message: what + " not found"}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: TypeForbidden, Message: message}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthenticated, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Type: TypeConflict, Message: message}
}

func Unprocessable(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Type: TypeUnprocessable, Message: message}
}

// Upstream wraps a failure of the document store or an external provider.
func Upstream(message string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Type: TypeUpstream, Message: message, Err: err}
}

// Is reports whether err is an AppError of the given type.
func Is(err error, typ string) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Type == typ
}
