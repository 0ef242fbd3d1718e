// Package apperrors defines the error kinds surfaced by the API and how they
// map onto HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/logging"
)

// ErrNotFound matches every NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed caller input: an unsupported database
// type, a missing field, or a badly shaped schema override.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a lookup of something that does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(message string) error {
	return &NotFoundError{Message: message}
}

// BackendError wraps a failure talking to a target database. Prefix names
// the backend family ("PostgreSQL error") and leads the rendered message.
type BackendError struct {
	Backend string
	Prefix  string
	Err     error
}

func (e *BackendError) Error() string {
	return e.Prefix + ": " + logging.SanitizeError(e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	var verr *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		// BackendError and anything unanticipated
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show an API caller. Known kinds
// carry their own message; anything else collapses to a generic one so
// internal details stay in the logs.
func PublicMessage(err error) string {
	var (
		verr *ValidationError
		nerr *NotFoundError
		berr *BackendError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &nerr):
		return nerr.Message
	case errors.As(err, &berr):
		return berr.Error()
	default:
		return "Internal server error"
	}
}
