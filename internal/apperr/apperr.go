// Package apperr defines the typed application error carried from services to the HTTP layer.
package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// AppError carries the HTTP status and client-facing message of a failure
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is returned when an entity does not exist
func NotFound(entity string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: entity + " not found"}
}

// InvalidState is returned when an operation is attempted from a disallowed status
func InvalidState(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

// Validation is returned for missing fields and business rule violations
func Validation(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

// Forbidden is returned when the caller may not perform the action
func Forbidden(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: msg}
}

// Unauthorized is returned for missing, invalid or expired sessions
func Unauthorized(msg string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: msg}
}

// Internal wraps an unexpected failure; the underlying message is surfaced to the client
func Internal(msg string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// StatusOf maps any error to the HTTP status it should be reported with
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-facing message for err
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "resource not found"
	}
	return err.Error()
}

// Is reports whether err is an AppError with the given status
func Is(err error, status int) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Status == status
}
