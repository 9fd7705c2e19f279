package ports

import (
	"context"
	"time"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerService is the transactional core: each operation validates input,
// computes fees, posts balanced legs to exactly the accounts implied by the
// operation kind, and writes one transaction record — all as a single
// atomic unit.
type LedgerService interface {
	Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
	QRPayment(ctx context.Context, req QRPaymentRequest) (*domain.Transaction, error)
	InternalTransfer(ctx context.Context, req InternalTransferRequest) (*domain.Transaction, error)
	CreditGrant(ctx context.Context, req CreditGrantRequest) (*domain.Transaction, error)
	Reverse(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)

	// PostSettlement writes the settlement payout legs and transaction
	// record inside the caller's database transaction. Used by the
	// settlement workflow, which owns the surrounding atomic unit.
	PostSettlement(ctx context.Context, tx pgx.Tx, settlement *domain.Settlement) (*domain.Transaction, error)
}

// DepositRequest: an agent receives cash from a customer and the platform
// credits the customer's wallet.
type DepositRequest struct {
	CustomerID      uuid.UUID
	AgentID         uuid.UUID
	Amount          int64
	Currency        domain.Currency
	ClientReference string // optional; enables idempotent replay
	Metadata        map[string]string
}

// WithdrawRequest: an agent pays out cash from a customer's wallet.
type WithdrawRequest struct {
	CustomerID      uuid.UUID
	AgentID         uuid.UUID
	Amount          int64
	Currency        domain.Currency
	ClientReference string
	Metadata        map[string]string
}

// TransferRequest: peer-to-peer movement between personal wallets.
type TransferRequest struct {
	SenderID        uuid.UUID
	ReceiverID      uuid.UUID
	Amount          int64
	Currency        domain.Currency
	ClientReference string
	Metadata        map[string]string
}

// QRPaymentRequest: a payer settles a merchant QR code; the merchant-specific
// fee schedule applies.
type QRPaymentRequest struct {
	PayerID         uuid.UUID
	MerchantID      uuid.UUID
	Amount          int64
	Currency        domain.Currency
	ClientReference string
	Metadata        map[string]string
}

// InternalTransferRequest: fee-free movement between the same user's wallet
// types. Secondary-PIN authentication is owned by the calling layer.
type InternalTransferRequest struct {
	UserID   uuid.UUID
	From     domain.WalletType
	To       domain.WalletType
	Amount   int64
	Currency domain.Currency
}

// CreditGrantRequest: seeds liquidity from the central reserve into a
// wallet; no fee.
type CreditGrantRequest struct {
	ReceiverID uuid.UUID
	WalletType domain.WalletType
	Amount     int64
	Currency   domain.Currency
	Metadata   map[string]string
}

// SettlementService drives the settlement state machine. It is the only
// writer of settlement records; money movement is delegated to the ledger
// engine.
type SettlementService interface {
	Create(ctx context.Context, agentID uuid.UUID, currency domain.Currency, notes string) (*domain.Settlement, error)
	Approve(ctx context.Context, settlementID, operatorID uuid.UUID) (*domain.Settlement, error)
	Reject(ctx context.Context, settlementID, operatorID uuid.UUID, reason string) (*domain.Settlement, error)
}

// ReconciliationService verifies the system-wide zero-sum invariant.
// Discrepancies are reported, never thrown.
type ReconciliationService interface {
	Reconcile(ctx context.Context, currency domain.Currency) (*domain.ReconciliationReport, error)
	ReconcileAll(ctx context.Context) ([]domain.ReconciliationReport, error)
}

// AuditService records audit entries fire-and-forget.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditEntry)
}

// NotificationDispatcher delivers user notifications fire-and-forget;
// a delivery failure never affects a committed ledger operation.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, title, body string, metadata map[string]string)
}

// IdempotencyCache is the redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
