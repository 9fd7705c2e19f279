package ports

import (
	"context"
	"time"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for user wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUser(ctx context.Context, userID uuid.UUID, currency domain.Currency, walletType domain.WalletType) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByUserForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, walletType domain.WalletType) (*domain.Wallet, error)
	// ApplyDelta atomically adds a signed minor-unit delta to a wallet balance.
	ApplyDelta(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta int64) error
	// SumBalances aggregates all wallet balances for a currency (reconciliation).
	SumBalances(ctx context.Context, currency domain.Currency) (int64, error)
}

// InternalAccountRepository defines persistence for the closed set of
// system accounts, one balance row per (kind, currency).
type InternalAccountRepository interface {
	Get(ctx context.Context, kind domain.InternalAccountKind, currency domain.Currency) (*domain.InternalAccount, error)
	// ApplyDelta atomically adds a signed delta to one internal account.
	ApplyDelta(ctx context.Context, tx pgx.Tx, kind domain.InternalAccountKind, currency domain.Currency, delta int64) error
	SumBalances(ctx context.Context, currency domain.Currency) (int64, error)
}

// TransactionRepository defines persistence for transaction records and
// their balanced postings.
type TransactionRepository interface {
	// Create inserts the transaction and its postings as one unit inside tx.
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction, postings []domain.Posting) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetPostings(ctx context.Context, transactionID uuid.UUID) ([]domain.Posting, error)
	// UpdateStatusIf transitions status only when the current status matches
	// expected; returns false when the guard fails (e.g. already reversed).
	UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next domain.TransactionStatus) (bool, error)
	// SumCompletedForUserSince aggregates gross amounts of COMPLETED
	// transactions counted against a user's rolling daily/weekly/monthly
	// limits: everything sent from the user's wallets plus deposits
	// credited to them. Runs on the caller's transaction so the limit
	// read shares the operation's snapshot.
	SumCompletedForUserSince(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, since time.Time) (int64, error)
}

// AgentRepository defines persistence for agent profiles and their
// per-currency float balances.
type AgentRepository interface {
	GetProfile(ctx context.Context, agentID uuid.UUID) (*domain.AgentProfile, error)
	GetBalance(ctx context.Context, agentID uuid.UUID, currency domain.Currency) (*domain.AgentBalance, error)
	GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency) (*domain.AgentBalance, error)
	SetBalance(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency, currentCredit, cashCollected int64) error
}

// SettlementRepository defines persistence for settlement requests.
type SettlementRepository interface {
	Create(ctx context.Context, tx pgx.Tx, settlement *domain.Settlement) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Settlement, error)
	HasPendingForAgent(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency) (bool, error)
	UpdateDecision(ctx context.Context, tx pgx.Tx, settlement *domain.Settlement) error
}

// IdempotencyRepository defines persistence for idempotency logs (DB layer
// behind the redis fast path).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists audit entries (write-only sink).
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
