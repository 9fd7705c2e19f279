package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionKind represents the kind of money movement.
type TransactionKind string

const (
	KindDeposit          TransactionKind = "DEPOSIT"
	KindWithdraw         TransactionKind = "WITHDRAW"
	KindTransfer         TransactionKind = "TRANSFER"
	KindQRPayment        TransactionKind = "QR_PAYMENT"
	KindInternalTransfer TransactionKind = "INTERNAL_TRANSFER"
	KindCreditGrant      TransactionKind = "CREDIT_GRANT"
	KindSettlement       TransactionKind = "SETTLEMENT"
	KindReversal         TransactionKind = "REVERSAL"
)

// ReferencePrefix returns the human-readable prefix used in reference numbers.
func (k TransactionKind) ReferencePrefix() string {
	switch k {
	case KindDeposit:
		return "DEP"
	case KindWithdraw:
		return "WDR"
	case KindTransfer:
		return "TRF"
	case KindQRPayment:
		return "QRP"
	case KindInternalTransfer:
		return "INT"
	case KindCreditGrant:
		return "CRG"
	case KindSettlement:
		return "STL"
	case KindReversal:
		return "REV"
	}
	return "TXN"
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

// Transaction is the immutable record of one logical money movement.
// Gross, Fee, Net and the fee shares are minor units and always satisfy
// Net + PlatformShare + AgentShare == Gross. A transaction is never mutated
// after commit except for the status transition to REVERSED performed by a
// compensating REVERSAL transaction.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	ReferenceNumber  string            `json:"reference_number"`
	Kind             TransactionKind   `json:"kind"`
	Currency         Currency          `json:"currency"`
	Gross            int64             `json:"gross"`
	Fee              int64             `json:"fee"`
	Net              int64             `json:"net"`
	PlatformShare    int64             `json:"platform_share"`
	AgentShare       int64             `json:"agent_share"`
	SenderWalletID   *uuid.UUID        `json:"sender_wallet_id,omitempty"`
	ReceiverWalletID *uuid.UUID        `json:"receiver_wallet_id,omitempty"`
	AgentID          *uuid.UUID        `json:"agent_id,omitempty"`
	AgentCreditDelta int64             `json:"agent_credit_delta,omitempty"`
	AgentCashDelta   int64             `json:"agent_cash_delta,omitempty"`
	Status           TransactionStatus `json:"status"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	OriginalID       *uuid.UUID        `json:"original_transaction_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// Reversible returns true if this transaction can be reversed by a
// compensating entry.
func (t *Transaction) Reversible() bool {
	return t.Status == TransactionStatusCompleted && t.Kind != KindReversal
}

// NewReferenceNumber builds a unique human-readable reference, prefixed by
// the operation kind, e.g. "DEP-20260827-1C9A4F2B".
func NewReferenceNumber(kind TransactionKind) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%s", kind.ReferencePrefix(), time.Now().UTC().Format("20060102"), suffix)
}

// Posting is one balanced leg of a transaction: a signed minor-unit delta
// applied to either a user wallet or an internal account. Exactly one of
// WalletID / InternalKind is set.
type Posting struct {
	ID            uuid.UUID            `json:"id"`
	TransactionID uuid.UUID            `json:"transaction_id"`
	WalletID      *uuid.UUID           `json:"wallet_id,omitempty"`
	InternalKind  *InternalAccountKind `json:"internal_kind,omitempty"`
	Currency      Currency             `json:"currency"`
	Amount        int64                `json:"amount"`
}

// WalletPosting builds a posting against a user wallet.
func WalletPosting(txID, walletID uuid.UUID, currency Currency, amount int64) Posting {
	wid := walletID
	return Posting{ID: uuid.New(), TransactionID: txID, WalletID: &wid, Currency: currency, Amount: amount}
}

// InternalPosting builds a posting against an internal account.
func InternalPosting(txID uuid.UUID, kind InternalAccountKind, currency Currency, amount int64) Posting {
	k := kind
	return Posting{ID: uuid.New(), TransactionID: txID, InternalKind: &k, Currency: currency, Amount: amount}
}

// Balanced reports whether the postings sum to zero (double-entry closure).
func Balanced(postings []Posting) bool {
	var sum int64
	for _, p := range postings {
		sum += p.Amount
	}
	return sum == 0
}

// Inverted returns the exact inverse legs of the given postings, attributed
// to the compensating transaction.
func Inverted(postings []Posting, reversalTxID uuid.UUID) []Posting {
	out := make([]Posting, 0, len(postings))
	for _, p := range postings {
		inv := p
		inv.ID = uuid.New()
		inv.TransactionID = reversalTxID
		inv.Amount = -p.Amount
		out = append(out, inv)
	}
	return out
}
