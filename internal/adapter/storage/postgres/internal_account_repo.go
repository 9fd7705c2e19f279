package postgres

import (
	"context"
	"errors"
	"fmt"

	"mobile-money-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// InternalAccountRepo implements ports.InternalAccountRepository. There is
// exactly one row per (kind, currency); rows are seeded by migration.
type InternalAccountRepo struct {
	pool Pool
}

// NewInternalAccountRepo creates a new InternalAccountRepo.
func NewInternalAccountRepo(pool Pool) *InternalAccountRepo {
	return &InternalAccountRepo{pool: pool}
}

// Get fetches one internal account balance row.
func (r *InternalAccountRepo) Get(ctx context.Context, kind domain.InternalAccountKind, currency domain.Currency) (*domain.InternalAccount, error) {
	query := `SELECT kind, currency, balance, updated_at
		FROM internal_accounts WHERE kind = $1 AND currency = $2`

	a := &domain.InternalAccount{}
	err := r.pool.QueryRow(ctx, query, kind, currency).Scan(
		&a.Kind, &a.Currency, &a.Balance, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get internal account: %w", err)
	}
	return a, nil
}

// ApplyDelta adds a signed delta to one internal account within a
// transaction. The UPDATE itself takes the row lock; internal accounts are
// never read-then-written.
func (r *InternalAccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, kind domain.InternalAccountKind, currency domain.Currency, delta int64) error {
	query := `UPDATE internal_accounts SET balance = balance + $1, updated_at = NOW()
		WHERE kind = $2 AND currency = $3`

	tag, err := tx.Exec(ctx, query, delta, kind, currency)
	if err != nil {
		return fmt.Errorf("apply internal account delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("internal account not found: %s/%s", kind, currency)
	}
	return nil
}

// SumBalances aggregates all internal account balances for a currency.
func (r *InternalAccountRepo) SumBalances(ctx context.Context, currency domain.Currency) (int64, error) {
	query := `SELECT COALESCE(SUM(balance), 0) FROM internal_accounts WHERE currency = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, currency).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum internal account balances: %w", err)
	}
	return sum, nil
}
