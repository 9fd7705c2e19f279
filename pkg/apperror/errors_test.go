package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_001", "Insufficient funds", http.StatusPaymentRequired),
			expected: "[LED_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("VAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Validation", Validation("bad input"), "VAL_001", 400},
		{"InvalidAmount", ErrInvalidAmount(), "VAL_001", 400},
		{"UnsupportedCurrency", ErrUnsupportedCurrency("EUR"), "VAL_002", 400},
		{"NotFound", ErrNotFound("Wallet"), "VAL_003", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "LED_001", 402},
		{"InsufficientAgentCreditLimit", ErrInsufficientAgentCreditLimit(), "LED_002", 422},
		{"LimitExceeded", ErrLimitExceeded("daily"), "LED_003", 422},
		{"NotReversible", ErrNotReversible(), "LED_004", 409},
		{"AgentInactive", ErrAgentInactive(), "LED_005", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSettlementErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"AlreadyProcessed", ErrSettlementAlreadyProcessed(), "STL_001", 409},
		{"PendingExists", ErrPendingSettlementExists(), "STL_002", 409},
		{"NothingToSettle", ErrNothingToSettle(), "STL_003", 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	txErr := ErrTransactionFailed(inner)
	assert.Equal(t, "SYS_001", txErr.Code)
	assert.Equal(t, 500, txErr.HTTPStatus)
	assert.True(t, errors.Is(txErr, inner))

	integrityErr := ErrDataIntegrityViolation("USD delta 3")
	assert.Equal(t, "SYS_002", integrityErr.Code)
	assert.Contains(t, integrityErr.Message, "USD delta 3")
}

func TestLimitExceededDetail(t *testing.T) {
	err := ErrLimitExceeded("monthly")
	assert.Contains(t, err.Message, "monthly")
}
