package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a generic validation error. Rejected before any mutation.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Invalid amount", http.StatusBadRequest)
}

func ErrUnsupportedCurrency(currency string) *AppError {
	return New("VAL_002", fmt.Sprintf("Unsupported currency: %s", currency), http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("VAL_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Ledger business rules (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient funds in wallet", http.StatusPaymentRequired)
}

func ErrInsufficientAgentCreditLimit() *AppError {
	return New("LED_002", "Agent credit limit exceeded", http.StatusUnprocessableEntity)
}

func ErrLimitExceeded(which string) *AppError {
	return New("LED_003", fmt.Sprintf("Transaction limit exceeded: %s", which), http.StatusUnprocessableEntity)
}

func ErrNotReversible() *AppError {
	return New("LED_004", "Transaction is not reversible", http.StatusConflict)
}

func ErrAgentInactive() *AppError {
	return New("LED_005", "Agent account is inactive", http.StatusForbidden)
}

// ---- Settlement state machine (STL) ----

func ErrSettlementAlreadyProcessed() *AppError {
	return New("STL_001", "Settlement has already been processed", http.StatusConflict)
}

func ErrPendingSettlementExists() *AppError {
	return New("STL_002", "A pending settlement already exists for this agent", http.StatusConflict)
}

func ErrNothingToSettle() *AppError {
	return New("STL_003", "Agent has no collected cash to settle", http.StatusUnprocessableEntity)
}

// ---- System & Infrastructure (SYS) ----

// ErrTransactionFailed signals an infrastructure-level abort of an atomic
// unit. No partial postings exist; the whole operation is safe to retry.
func ErrTransactionFailed(err error) *AppError {
	return Wrap("SYS_001", "Transaction failed", http.StatusInternalServerError, err)
}

// ErrDataIntegrityViolation signals a nonzero reconciliation discrepancy.
// Surfaced to operators, never auto-corrected.
func ErrDataIntegrityViolation(detail string) *AppError {
	return New("SYS_002", fmt.Sprintf("Data integrity violation: %s", detail), http.StatusInternalServerError)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
