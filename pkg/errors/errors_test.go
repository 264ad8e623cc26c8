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
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
		target error
	}{
		{"not found", NotFound("batch"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"bad request", BadRequest("invalid id"), "BAD_REQUEST", http.StatusBadRequest, ErrBadRequest},
		{"conflict", Conflict("duplicate"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"internal", Internal("boom"), "INTERNAL_ERROR", http.StatusInternalServerError, ErrInternal},
		{"validation", Validation(map[string]string{"Quantity": "min"}), "VALIDATION_ERROR", http.StatusBadRequest, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.True(t, Is(tt.err, tt.target))
		})
	}

	assert.Equal(t, "batch not found: resource not found", NotFound("batch").Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("insufficient stock")
	appErr := Wrap(cause, "INSUFFICIENT_STOCK", "not enough stock", http.StatusConflict).
		WithDetails(map[string]string{"available": "3"})

	wrapped := fmt.Errorf("sell: %w", appErr)

	var target *AppError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "INSUFFICIENT_STOCK", target.Code)
	assert.Equal(t, "3", target.Details["available"])
	assert.True(t, Is(wrapped, cause))
}

func TestNew_NoWrappedError(t *testing.T) {
	err := New("STOCK_CHANGED", "stock changed", http.StatusConflict)

	assert.Equal(t, "stock changed", err.Error())
	assert.Nil(t, err.Unwrap())
}
