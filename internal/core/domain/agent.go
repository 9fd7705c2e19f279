package domain

import (
	"time"

	"github.com/google/uuid"
)

// AgentProfile extends a platform user with agent capabilities: collecting
// cash deposits and paying out withdrawals against a platform credit line.
type AgentProfile struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	AgentCode    string    `json:"agent_code"`
	BusinessName string    `json:"business_name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AgentBalance is an agent's per-currency float position. CurrentCredit is
// the digital float advanced by the platform (never negative, capped by
// CreditLimit); CashCollected is the physical cash the agent holds on the
// platform's behalf. Both reset to zero on settlement.
type AgentBalance struct {
	AgentID       uuid.UUID `json:"agent_id"`
	Currency      Currency  `json:"currency"`
	CurrentCredit int64     `json:"current_credit"`
	CashCollected int64     `json:"cash_collected"`
	CreditLimit   int64     `json:"credit_limit"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanExtendCredit reports whether drawing amount more credit stays within
// the agent's limit.
func (b *AgentBalance) CanExtendCredit(amount int64) bool {
	return b.CurrentCredit+amount <= b.CreditLimit
}
