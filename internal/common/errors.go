package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFound builds the canonical missing-entity error.
func NotFound(entity string, id int64) *AppError {
	return NewAppError("NOT_FOUND", fmt.Sprintf("%s %d not found", entity, id), http.StatusNotFound, nil)
}

// Validation builds a client validation error.
func Validation(message string, err error) *AppError {
	return NewAppError("VALIDATION_ERROR", message, http.StatusUnprocessableEntity, err)
}

// BadRequest builds a malformed-input error.
func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// Conflict builds an invalid-state-transition error.
func Conflict(message string) *AppError {
	return NewAppError("CONFLICT", message, http.StatusConflict, nil)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
