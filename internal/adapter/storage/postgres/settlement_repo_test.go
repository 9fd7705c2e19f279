package postgres

import (
	"context"
	"testing"
	"time"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettlement() *domain.Settlement {
	return &domain.Settlement{
		ID:            uuid.New(),
		Number:        domain.NewReferenceNumber(domain.KindSettlement),
		AgentID:       uuid.New(),
		Currency:      domain.CurrencyUSD,
		CreditUsed:    15_000,
		CashCollected: 20_000,
		PlatformShare: 100,
		AgentShare:    100,
		AmountDue:     19_800,
		Status:        domain.SettlementStatusPending,
		Notes:         "weekly cash-in",
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func settlementTestColumns() []string {
	return []string{
		"id", "settlement_number", "agent_id", "currency", "credit_used", "cash_collected",
		"platform_share", "agent_share", "amount_due", "status", "notes", "operator_id",
		"rejection_reason", "transaction_id", "created_at", "decided_at",
	}
}

func settlementRow(s *domain.Settlement) *pgxmock.Rows {
	return pgxmock.NewRows(settlementTestColumns()).AddRow(
		s.ID, s.Number, s.AgentID, s.Currency, s.CreditUsed, s.CashCollected,
		s.PlatformShare, s.AgentShare, s.AmountDue, s.Status, s.Notes, s.OperatorID,
		s.RejectionReason, s.TransactionID, s.CreatedAt, s.DecidedAt,
	)
}

func TestSettlementRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettlementRepo(mock)
	s := newTestSettlement()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settlements").
		WithArgs(s.ID, s.Number, s.AgentID, s.Currency, s.CreditUsed, s.CashCollected,
			s.PlatformShare, s.AgentShare, s.AmountDue, s.Status, s.Notes, s.OperatorID,
			s.RejectionReason, s.TransactionID, s.CreatedAt, s.DecidedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettlementRepo(mock)
	s := newTestSettlement()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM settlements WHERE id .+ FOR UPDATE").
		WithArgs(s.ID).
		WillReturnRows(settlementRow(s))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.AmountDue, result.AmountDue)
	assert.True(t, result.Decidable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRepo_HasPendingForAgent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettlementRepo(mock)
	agentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(agentID, domain.CurrencyUSD).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	exists, err := repo.HasPendingForAgent(context.Background(), tx, agentID, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRepo_UpdateDecision(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettlementRepo(mock)
	s := newTestSettlement()
	operatorID := uuid.New()
	txID := uuid.New()
	now := time.Now().UTC()
	s.Status = domain.SettlementStatusPaid
	s.OperatorID = &operatorID
	s.TransactionID = &txID
	s.DecidedAt = &now

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE settlements SET status").
		WithArgs(s.Status, s.OperatorID, s.RejectionReason, s.TransactionID, s.DecidedAt, s.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateDecision(context.Background(), tx, s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRepo_UpdateDecision_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettlementRepo(mock)
	s := newTestSettlement()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE settlements SET status").
		WithArgs(s.Status, s.OperatorID, s.RejectionReason, s.TransactionID, s.DecidedAt, s.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateDecision(context.Background(), tx, s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settlement not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
