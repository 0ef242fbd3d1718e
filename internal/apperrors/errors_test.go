package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validationf("bad %s", "input"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("decoding: %w", Validationf("bad")), http.StatusBadRequest},
		{"not found", NotFound("Session not found"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get: %w", NotFound("x")), http.StatusNotFound},
		{"backend", &BackendError{Prefix: "MySQL error", Err: errors.New("denied")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Session not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "lookup: Session not found", err.Error())
}

func TestBackendError_PrefixAndSanitize(t *testing.T) {
	err := &BackendError{
		Backend: "mongodb",
		Prefix:  "MongoDB connection error",
		Err:     errors.New(`dial "mongodb://admin:pw@db:27017/": refused`),
	}
	msg := err.Error()
	assert.Contains(t, msg, "MongoDB connection error: ")
	assert.NotContains(t, msg, "admin:pw")
}

func TestBackendError_Unwrap(t *testing.T) {
	inner := errors.New("auth failed")
	err := fmt.Errorf("connect: %w", &BackendError{Prefix: "PostgreSQL error", Err: inner})
	assert.True(t, errors.Is(err, inner))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bad dbtype", PublicMessage(Validationf("bad dbtype")))
	assert.Equal(t, "Session not found", PublicMessage(fmt.Errorf("x: %w", NotFound("Session not found"))))
	assert.Equal(t, "PostgreSQL error: timeout",
		PublicMessage(&BackendError{Prefix: "PostgreSQL error", Err: errors.New("timeout")}))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("nil pointer in handler")))
}
