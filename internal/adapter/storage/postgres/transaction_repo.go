package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, reference_number, kind, currency, gross, fee, net,
		platform_share, agent_share, sender_wallet_id, receiver_wallet_id,
		agent_id, agent_credit_delta, agent_cash_delta, status, metadata,
		original_transaction_id, created_at, completed_at`

// Create inserts the transaction record and its postings as one unit within
// a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction, postings []domain.Posting) error {
	query := `INSERT INTO transactions (id, reference_number, kind, currency, gross, fee, net,
		platform_share, agent_share, sender_wallet_id, receiver_wallet_id,
		agent_id, agent_credit_delta, agent_cash_delta, status, metadata,
		original_transaction_id, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.ReferenceNumber, t.Kind, t.Currency, t.Gross, t.Fee, t.Net,
		t.PlatformShare, t.AgentShare, t.SenderWalletID, t.ReceiverWalletID,
		t.AgentID, t.AgentCreditDelta, t.AgentCashDelta, t.Status, t.Metadata,
		t.OriginalID, t.CreatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	postingQuery := `INSERT INTO postings (id, transaction_id, wallet_id, internal_kind, currency, amount)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, p := range postings {
		_, err := tx.Exec(ctx, postingQuery,
			p.ID, p.TransactionID, p.WalletID, p.InternalKind, p.Currency, p.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert posting: %w", err)
		}
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetPostings fetches all postings of a transaction.
func (r *TransactionRepo) GetPostings(ctx context.Context, transactionID uuid.UUID) ([]domain.Posting, error) {
	query := `SELECT id, transaction_id, wallet_id, internal_kind, currency, amount
		FROM postings WHERE transaction_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get postings: %w", err)
	}
	defer rows.Close()

	var postings []domain.Posting
	for rows.Next() {
		p := domain.Posting{}
		err := rows.Scan(&p.ID, &p.TransactionID, &p.WalletID, &p.InternalKind, &p.Currency, &p.Amount)
		if err != nil {
			return nil, fmt.Errorf("scan posting row: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posting rows: %w", err)
	}
	return postings, nil
}

// UpdateStatusIf transitions a transaction's status only when the current
// status matches expected. Returns false when the guard fails, which keeps
// two racing reversals from both succeeding.
func (r *TransactionRepo) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next domain.TransactionStatus) (bool, error) {
	query := `UPDATE transactions SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query, next, time.Now().UTC(), id, expected)
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SumCompletedForUserSince aggregates gross amounts of COMPLETED
// transactions counted against a user's rolling limits: everything sent
// from the user's wallets plus deposits credited to them (deposits carry
// no sender wallet). Runs inside the caller's transaction so all reads of
// one ledger operation share a snapshot.
func (r *TransactionRepo) SumCompletedForUserSince(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, since time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(t.gross), 0) FROM transactions t
		LEFT JOIN wallets ws ON ws.id = t.sender_wallet_id
		LEFT JOIN wallets wr ON wr.id = t.receiver_wallet_id
		WHERE t.currency = $2 AND t.status = 'COMPLETED' AND t.created_at >= $3
			AND (ws.user_id = $1 OR (t.kind = 'DEPOSIT' AND wr.user_id = $1))`

	var sum int64
	if err := tx.QueryRow(ctx, query, userID, currency, since).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum completed transactions: %w", err)
	}
	return sum, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.ReferenceNumber, &t.Kind, &t.Currency, &t.Gross, &t.Fee, &t.Net,
		&t.PlatformShare, &t.AgentShare, &t.SenderWalletID, &t.ReceiverWalletID,
		&t.AgentID, &t.AgentCreditDelta, &t.AgentCashDelta, &t.Status, &t.Metadata,
		&t.OriginalID, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
