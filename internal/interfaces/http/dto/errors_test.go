package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retailops/core/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeInvalidAmount, http.StatusBadRequest},
		{shared.CodeIllegalTransition, http.StatusConflict},
		{shared.CodeMissingAssignment, http.StatusUnprocessableEntity},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeForbidden, http.StatusForbidden},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeUpstream, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_NOBODY_MAPPED", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeUpstream, "backend rejected the update")
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, ErrCodeUpstream, resp.Error.Code)
	assert.Equal(t, "backend rejected the update", resp.Error.Message)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]int{"count": 3})
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
}
