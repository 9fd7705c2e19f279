package postgres

import (
	"context"
	"errors"
	"fmt"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettlementRepo implements ports.SettlementRepository.
type SettlementRepo struct {
	pool Pool
}

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(pool Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

const settlementColumns = `id, settlement_number, agent_id, currency, credit_used, cash_collected,
		platform_share, agent_share, amount_due, status, notes, operator_id,
		rejection_reason, transaction_id, created_at, decided_at`

// Create inserts a new settlement request within a database transaction.
func (r *SettlementRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.Settlement) error {
	query := `INSERT INTO settlements (id, settlement_number, agent_id, currency, credit_used, cash_collected,
		platform_share, agent_share, amount_due, status, notes, operator_id,
		rejection_reason, transaction_id, created_at, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := tx.Exec(ctx, query,
		s.ID, s.Number, s.AgentID, s.Currency, s.CreditUsed, s.CashCollected,
		s.PlatformShare, s.AgentShare, s.AmountDue, s.Status, s.Notes, s.OperatorID,
		s.RejectionReason, s.TransactionID, s.CreatedAt, s.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// GetByID fetches a settlement by UUID (without locking).
func (r *SettlementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`
	return scanSettlement(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a settlement with pessimistic locking. This MUST
// be called within a transaction.
func (r *SettlementRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1 FOR UPDATE`
	return scanSettlement(tx.QueryRow(ctx, query, id))
}

// HasPendingForAgent reports whether the agent already has a PENDING
// settlement for the currency.
func (r *SettlementRepo) HasPendingForAgent(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM settlements WHERE agent_id = $1 AND currency = $2 AND status = 'PENDING')`

	var exists bool
	if err := tx.QueryRow(ctx, query, agentID, currency).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending settlement: %w", err)
	}
	return exists, nil
}

// UpdateDecision writes the operator decision fields within a transaction.
func (r *SettlementRepo) UpdateDecision(ctx context.Context, tx pgx.Tx, s *domain.Settlement) error {
	query := `UPDATE settlements SET status = $1, operator_id = $2, rejection_reason = $3,
		transaction_id = $4, decided_at = $5 WHERE id = $6`

	tag, err := tx.Exec(ctx, query,
		s.Status, s.OperatorID, s.RejectionReason, s.TransactionID, s.DecidedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update settlement decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement not found: %s", s.ID)
	}
	return nil
}

// scanSettlement is a helper to scan a single row into a Settlement.
func scanSettlement(row pgx.Row) (*domain.Settlement, error) {
	s := &domain.Settlement{}
	err := row.Scan(
		&s.ID, &s.Number, &s.AgentID, &s.Currency, &s.CreditUsed, &s.CashCollected,
		&s.PlatformShare, &s.AgentShare, &s.AmountDue, &s.Status, &s.Notes, &s.OperatorID,
		&s.RejectionReason, &s.TransactionID, &s.CreatedAt, &s.DecidedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan settlement: %w", err)
	}
	return s, nil
}
