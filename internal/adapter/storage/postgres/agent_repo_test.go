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

func TestAgentRepo_GetProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAgentRepo(mock)
	agentID := uuid.New()
	userID := uuid.New()
	created := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows([]string{"id", "user_id", "agent_code", "business_name", "active", "created_at"}).
		AddRow(agentID, userID, "AGT-0042", "Corner Shop", true, created)

	mock.ExpectQuery("SELECT .+ FROM agent_profiles WHERE id").
		WithArgs(agentID).
		WillReturnRows(rows)

	p, err := repo.GetProfile(context.Background(), agentID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "AGT-0042", p.AgentCode)
	assert.True(t, p.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentRepo_GetProfile_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAgentRepo(mock)
	agentID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM agent_profiles WHERE id").
		WithArgs(agentID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "agent_code", "business_name", "active", "created_at"}))

	p, err := repo.GetProfile(context.Background(), agentID)
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentRepo_GetBalanceForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAgentRepo(mock)
	agentID := uuid.New()
	updated := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows([]string{"agent_id", "currency", "current_credit", "cash_collected", "credit_limit", "updated_at"}).
		AddRow(agentID, domain.CurrencyUSD, int64(40_000), int64(55_000), int64(5_000_000), updated)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM agent_balances\\s+WHERE agent_id .+ FOR UPDATE").
		WithArgs(agentID, domain.CurrencyUSD).
		WillReturnRows(rows)

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	b, err := repo.GetBalanceForUpdate(context.Background(), tx, agentID, domain.CurrencyUSD)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, int64(40_000), b.CurrentCredit)
	assert.True(t, b.CanExtendCredit(1_000))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentRepo_SetBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAgentRepo(mock)
	agentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE agent_balances SET current_credit").
		WithArgs(int64(0), int64(0), agentID, domain.CurrencyUSD).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.SetBalance(context.Background(), tx, agentID, domain.CurrencyUSD, 0, 0)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentRepo_SetBalance_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAgentRepo(mock)
	agentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE agent_balances SET current_credit").
		WithArgs(int64(100), int64(200), agentID, domain.CurrencySYP).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.SetBalance(context.Background(), tx, agentID, domain.CurrencySYP, 100, 200)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "agent balance not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
