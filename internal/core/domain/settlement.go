package domain

import (
	"time"

	"github.com/google/uuid"
)

// SettlementStatus is the lifecycle state of a settlement request.
type SettlementStatus string

const (
	SettlementStatusPending  SettlementStatus = "PENDING"
	SettlementStatusApproved SettlementStatus = "APPROVED"
	SettlementStatusRejected SettlementStatus = "REJECTED"
	SettlementStatusPaid     SettlementStatus = "PAID"
)

// Settlement converts an agent's collected cash into a payout. CreditUsed
// and CashCollected are snapshots taken at creation time; AmountDue =
// CashCollected - PlatformShare - AgentShare. At most one PENDING settlement
// exists per agent and currency at a time.
type Settlement struct {
	ID              uuid.UUID        `json:"id"`
	Number          string           `json:"number"`
	AgentID         uuid.UUID        `json:"agent_id"`
	Currency        Currency         `json:"currency"`
	CreditUsed      int64            `json:"credit_used"`
	CashCollected   int64            `json:"cash_collected"`
	PlatformShare   int64            `json:"platform_share"`
	AgentShare      int64            `json:"agent_share"`
	AmountDue       int64            `json:"amount_due"`
	Status          SettlementStatus `json:"status"`
	Notes           string           `json:"notes,omitempty"`
	OperatorID      *uuid.UUID       `json:"operator_id,omitempty"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	TransactionID   *uuid.UUID       `json:"transaction_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	DecidedAt       *time.Time       `json:"decided_at,omitempty"`
}

// Decidable reports whether an operator decision is still allowed. Guards
// against double-processing when two approvals race.
func (s *Settlement) Decidable() bool {
	return s.Status == SettlementStatusPending
}
