package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	tests := []struct {
		name       string
		err        *Error
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", ValidationError("bad input"), TypeValidation, http.StatusBadRequest},
		{"unauthorized", UnauthorizedError("missing token"), TypeUnauthorized, http.StatusUnauthorized},
		{"not_found", NotFoundError("unknown key"), TypeNotFound, http.StatusNotFound},
		{"conflict", ConflictError("exists"), TypeConflict, http.StatusConflict},
		{"unavailable", UnavailableError("storage down", cause), TypeUnavailable, http.StatusServiceUnavailable},
		{"internal", InternalError("boom", cause), TypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestUnknownTypeIsInternal(t *testing.T) {
	err := &Error{Type: ErrorType("weird")}
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestErrorStringWithCause(t *testing.T) {
	err := InternalError("wrapper message", fmt.Errorf("underlying issue"))

	assert.Equal(t, "internal: wrapper message: underlying issue", err.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := InternalError("wrapped", cause)

	require.ErrorIs(t, err, cause)
	assert.Nil(t, ValidationError("x").Unwrap())
}

func TestWithContext(t *testing.T) {
	err := ValidationError("test").
		WithContext("code", "app.website.name").
		WithContext("scope", "en").
		WithContext("scope", "fr")

	assert.Equal(t, map[string]any{"code": "app.website.name", "scope": "fr"}, err.Context)

	bare := &Error{Type: TypeValidation}
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}

func TestToResponse(t *testing.T) {
	resp := NotFoundError("unknown configuration key").WithContext("code", "x.y").ToResponse()

	assert.Equal(t, "unknown configuration key", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "x.y", resp.Context["code"])
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := NotFoundError("missing")
	assert.Same(t, original, AsStructuredError(fmt.Errorf("wrapped: %w", original)))

	plain := errors.New("plain")
	result := AsStructuredError(plain)
	assert.Equal(t, TypeInternal, result.Type)
	assert.Equal(t, "internal server error", result.Message)
	assert.Equal(t, plain, result.Cause)
}
