package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientBalance_Message(t *testing.T) {
	err := NewInsufficientBalance("acc-1", decimal.RequireFromString("150.00"), decimal.RequireFromString("100"))

	assert.Equal(t, CodeInsufficientBalance, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Contains(t, err.Message, "available 100 required 150")
	assert.Equal(t, "150", err.Details["required"])
}

func TestStoreError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("record consumption: %w", NewStore("insert consumption", cause))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeDatabase, appErr.Code)
	assert.Equal(t, "insert consumption", appErr.Details["operation"])
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(wrapped))
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("validate: %w", NewInsufficientStock("b1", "25", "20"))

	assert.True(t, IsInsufficientStock(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsCode(errors.New("plain"), CodeInsufficientStock))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}
