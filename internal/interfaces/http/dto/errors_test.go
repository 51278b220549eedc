package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"not found", ErrCodeNotFound, http.StatusNotFound},
		{"concurrency conflict", ErrCodeConcurrencyConflict, http.StatusConflict},
		{"insufficient stock", ErrCodeInsufficientStock, http.StatusConflict},
		{"incomplete allocation", ErrCodeIncompleteAllocation, http.StatusConflict},
		{"validation", ErrCodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", ErrCodeInvalidInput, http.StatusBadRequest},
		{"consistency fault", ErrCodeConsistencyFault, http.StatusInternalServerError},
		{"unknown code falls back to 500", "ERR_NO_SUCH_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInsufficientStock, NormalizeErrorCode("INSUFFICIENT_STOCK"))
	assert.Equal(t, ErrCodeConsistencyFault, NormalizeErrorCode("CONSISTENCY_FAULT"))

	// API-format and unknown codes pass through unchanged
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", "req-123")

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 41, 2, 20)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
