package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletType distinguishes a user's wallet families.
type WalletType string

const (
	WalletTypePersonal WalletType = "PERSONAL"
	WalletTypeBusiness WalletType = "BUSINESS"
)

// Valid reports whether t is a known wallet type.
func (t WalletType) Valid() bool {
	return t == WalletTypePersonal || t == WalletTypeBusiness
}

// Wallet is a user-owned balance holder, unique per (user, currency, type).
// Balance and Frozen are minor units; Frozen is reserved and not spendable.
type Wallet struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Currency  Currency   `json:"currency"`
	Type      WalletType `json:"wallet_type"`
	Balance   int64      `json:"balance"`
	Frozen    int64      `json:"frozen"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Spendable returns the balance available for debits.
func (w *Wallet) Spendable() int64 {
	return w.Balance - w.Frozen
}

// InternalAccountKind is the closed set of system-owned accounts. Each kind
// maps to exactly one stored balance row per currency, so a typo can never
// silently create a phantom account.
type InternalAccountKind string

const (
	// InternalReserve is the credit-issuing counterparty for all money
	// created in the system; its balance is the negative of total money in
	// circulation.
	InternalReserve       InternalAccountKind = "RESERVE"
	InternalFeesCollected InternalAccountKind = "FEES_COLLECTED"
	InternalAgentsLedger  InternalAccountKind = "AGENTS_LEDGER"
	InternalUsersLedger   InternalAccountKind = "USERS_LEDGER"
	InternalSettlements   InternalAccountKind = "SETTLEMENTS"
	InternalSuspense      InternalAccountKind = "SUSPENSE"
)

// InternalAccountKinds lists every internal account kind.
func InternalAccountKinds() []InternalAccountKind {
	return []InternalAccountKind{
		InternalReserve,
		InternalFeesCollected,
		InternalAgentsLedger,
		InternalUsersLedger,
		InternalSettlements,
		InternalSuspense,
	}
}

// Valid reports whether k is a known internal account kind.
func (k InternalAccountKind) Valid() bool {
	for _, known := range InternalAccountKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// InternalAccount is one system account balance row. Negative balances are
// allowed by design.
type InternalAccount struct {
	Kind      InternalAccountKind `json:"kind"`
	Currency  Currency            `json:"currency"`
	Balance   int64               `json:"balance"`
	UpdatedAt time.Time           `json:"updated_at"`
}
