package postgres

import (
	"context"
	"errors"
	"fmt"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AgentRepo implements ports.AgentRepository.
type AgentRepo struct {
	pool Pool
}

// NewAgentRepo creates a new AgentRepo.
func NewAgentRepo(pool Pool) *AgentRepo {
	return &AgentRepo{pool: pool}
}

// GetProfile fetches an agent profile by ID.
func (r *AgentRepo) GetProfile(ctx context.Context, agentID uuid.UUID) (*domain.AgentProfile, error) {
	query := `SELECT id, user_id, agent_code, business_name, active, created_at
		FROM agent_profiles WHERE id = $1`

	p := &domain.AgentProfile{}
	err := r.pool.QueryRow(ctx, query, agentID).Scan(
		&p.ID, &p.UserID, &p.AgentCode, &p.BusinessName, &p.Active, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent profile: %w", err)
	}
	return p, nil
}

const agentBalanceColumns = `agent_id, currency, current_credit, cash_collected, credit_limit, updated_at`

// GetBalance fetches an agent's float position (non-locking read).
func (r *AgentRepo) GetBalance(ctx context.Context, agentID uuid.UUID, currency domain.Currency) (*domain.AgentBalance, error) {
	query := `SELECT ` + agentBalanceColumns + ` FROM agent_balances
		WHERE agent_id = $1 AND currency = $2`
	return scanAgentBalance(r.pool.QueryRow(ctx, query, agentID, currency))
}

// GetBalanceForUpdate fetches an agent's float position with pessimistic
// locking. This MUST be called within a transaction.
func (r *AgentRepo) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency) (*domain.AgentBalance, error) {
	query := `SELECT ` + agentBalanceColumns + ` FROM agent_balances
		WHERE agent_id = $1 AND currency = $2 FOR UPDATE`
	return scanAgentBalance(tx.QueryRow(ctx, query, agentID, currency))
}

// SetBalance writes an agent's credit and cash positions within a
// transaction. The row must already be locked by the caller.
func (r *AgentRepo) SetBalance(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency, currentCredit, cashCollected int64) error {
	query := `UPDATE agent_balances SET current_credit = $1, cash_collected = $2, updated_at = NOW()
		WHERE agent_id = $3 AND currency = $4`

	tag, err := tx.Exec(ctx, query, currentCredit, cashCollected, agentID, currency)
	if err != nil {
		return fmt.Errorf("set agent balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent balance not found: %s/%s", agentID, currency)
	}
	return nil
}

// scanAgentBalance is a helper to scan a single row into an AgentBalance.
func scanAgentBalance(row pgx.Row) (*domain.AgentBalance, error) {
	b := &domain.AgentBalance{}
	err := row.Scan(
		&b.AgentID, &b.Currency, &b.CurrentCredit, &b.CashCollected,
		&b.CreditLimit, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan agent balance: %w", err)
	}
	return b, nil
}
