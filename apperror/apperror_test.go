package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewAuthError("authentication required", nil), http.StatusUnauthorized},
		{NewForbiddenError("permission denied", nil), http.StatusForbidden},
		{NewNotFoundError("todo not found", nil), http.StatusNotFound},
		{NewValidationError("validation failed", "description too long"), http.StatusBadRequest},
		{NewBadRequestError("invalid credentials", nil), http.StatusBadRequest},
		{NewConflictError("email already registered", nil), http.StatusConflict},
		{NewDatabaseError("query failed", errors.New("boom")), http.StatusInternalServerError},
		{NewInternalError("internal server error", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestToResponseHidesCause(t *testing.T) {
	err := NewDatabaseError("failed to create user", errors.New("pq: connection reset"))
	resp := err.ToResponse()
	assert.Equal(t, "failed to create user", resp.Error)
	assert.Empty(t, resp.Details)
	assert.NotContains(t, resp.Error, "connection reset")
}

func TestValidationDetails(t *testing.T) {
	err := NewValidationError("validation failed", "priority must be one of low, medium, high")
	resp := err.ToResponse()
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, "priority must be one of low, medium, high", resp.Details)
}

func TestFromErrorUnwrapsChain(t *testing.T) {
	base := NewConflictError("email already registered", nil)
	wrapped := fmt.Errorf("register: %w", base)

	appErr, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ConflictError, appErr.Type)
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
}
