package service

import (
	"context"
	"testing"

	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	svc        *SettlementServiceImpl
	settleRepo *mocks.MockSettlementRepository
	agentRepo  *mocks.MockAgentRepository
	ledger     *mocks.MockLedgerService
	transactor *mocks.MockDBTransactor
	notifier   *mocks.MockNotificationDispatcher
	ctrl       *gomock.Controller
}

func setupSettlementService(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	d := &settlementTestDeps{
		settleRepo: mocks.NewMockSettlementRepository(ctrl),
		agentRepo:  mocks.NewMockAgentRepository(ctrl),
		ledger:     mocks.NewMockLedgerService(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		notifier:   mocks.NewMockNotificationDispatcher(ctrl),
		ctrl:       ctrl,
	}
	d.notifier.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	d.svc = NewSettlementService(
		d.settleRepo, d.agentRepo, d.ledger, d.transactor,
		NewAuditService(nil, zerolog.Nop()),
		d.notifier,
		testSchedule(), zerolog.Nop(),
	)
	return d
}

func TestSettlementService_Create_Success(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agentID := uuid.New()
	tx := &mockTx{}

	d.agentRepo.EXPECT().GetProfile(ctx, agentID).Return(activeAgentProfile(agentID), nil).AnyTimes()
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// The balance lock must be held before the pending check runs.
	lock := d.agentRepo.EXPECT().GetBalanceForUpdate(ctx, tx, agentID, domain.CurrencyUSD).Return(&domain.AgentBalance{
		AgentID: agentID, Currency: domain.CurrencyUSD,
		CurrentCredit: 15_000, CashCollected: 20_000, CreditLimit: 1_000_000,
	}, nil)
	d.settleRepo.EXPECT().HasPendingForAgent(ctx, tx, agentID, domain.CurrencyUSD).Return(false, nil).After(lock)
	d.settleRepo.EXPECT().Create(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, stl *domain.Settlement) error {
			assert.Equal(t, domain.SettlementStatusPending, stl.Status)
			return nil
		})

	stl, err := d.svc.Create(ctx, agentID, domain.CurrencyUSD, "weekly cash drop")
	require.NoError(t, err)
	require.NotNil(t, stl)
	// 20000 at 0.5% platform + 0.5% agent commission: 100 + 100 withheld.
	assert.Equal(t, int64(15_000), stl.CreditUsed)
	assert.Equal(t, int64(20_000), stl.CashCollected)
	assert.Equal(t, int64(100), stl.PlatformShare)
	assert.Equal(t, int64(100), stl.AgentShare)
	assert.Equal(t, int64(19_800), stl.AmountDue)
	assert.Equal(t, "weekly cash drop", stl.Notes)
	assert.Contains(t, stl.Number, "STL-")
}

func TestSettlementService_Create_PendingExists(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agentID := uuid.New()
	tx := &mockTx{}

	d.agentRepo.EXPECT().GetProfile(ctx, agentID).Return(activeAgentProfile(agentID), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// A racing request committed its PENDING row while we waited on the
	// balance lock; the check sees it after the lock is acquired.
	lock := d.agentRepo.EXPECT().GetBalanceForUpdate(ctx, tx, agentID, domain.CurrencyUSD).Return(&domain.AgentBalance{
		AgentID: agentID, Currency: domain.CurrencyUSD,
		CurrentCredit: 15_000, CashCollected: 20_000, CreditLimit: 1_000_000,
	}, nil)
	d.settleRepo.EXPECT().HasPendingForAgent(ctx, tx, agentID, domain.CurrencyUSD).Return(true, nil).After(lock)

	stl, err := d.svc.Create(ctx, agentID, domain.CurrencyUSD, "")
	assert.Nil(t, stl)
	assertAppError(t, err, "STL_002")
}

func TestSettlementService_Create_NothingToSettle(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agentID := uuid.New()
	tx := &mockTx{}

	d.agentRepo.EXPECT().GetProfile(ctx, agentID).Return(activeAgentProfile(agentID), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.agentRepo.EXPECT().GetBalanceForUpdate(ctx, tx, agentID, domain.CurrencyUSD).Return(&domain.AgentBalance{
		AgentID: agentID, Currency: domain.CurrencyUSD, CurrentCredit: 5_000,
	}, nil)
	d.settleRepo.EXPECT().HasPendingForAgent(ctx, tx, agentID, domain.CurrencyUSD).Return(false, nil)

	stl, err := d.svc.Create(ctx, agentID, domain.CurrencyUSD, "")
	assert.Nil(t, stl)
	assertAppError(t, err, "STL_003")
}

func TestSettlementService_Create_InactiveAgent(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agentID := uuid.New()
	profile := activeAgentProfile(agentID)
	profile.Active = false
	d.agentRepo.EXPECT().GetProfile(ctx, agentID).Return(profile, nil)

	stl, err := d.svc.Create(ctx, agentID, domain.CurrencyUSD, "")
	assert.Nil(t, stl)
	assertAppError(t, err, "LED_005")
}

func TestSettlementService_Approve_Success(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	settlementID := uuid.New()
	agentID := uuid.New()
	operatorID := uuid.New()
	tx := &mockTx{}

	pending := &domain.Settlement{
		ID:            settlementID,
		Number:        "STL-20260827-CAFE0042",
		AgentID:       agentID,
		Currency:      domain.CurrencyUSD,
		CreditUsed:    15_000,
		CashCollected: 20_000,
		PlatformShare: 100,
		AgentShare:    100,
		AmountDue:     19_800,
		Status:        domain.SettlementStatusPending,
	}
	payoutTxn := &domain.Transaction{ID: uuid.New(), Kind: domain.KindSettlement}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.settleRepo.EXPECT().GetByIDForUpdate(ctx, tx, settlementID).Return(pending, nil)
	d.agentRepo.EXPECT().GetBalanceForUpdate(ctx, tx, agentID, domain.CurrencyUSD).Return(&domain.AgentBalance{
		AgentID: agentID, Currency: domain.CurrencyUSD,
		CurrentCredit: 15_000, CashCollected: 20_000,
	}, nil)
	d.agentRepo.EXPECT().SetBalance(ctx, tx, agentID, domain.CurrencyUSD, int64(0), int64(0)).Return(nil)
	d.ledger.EXPECT().PostSettlement(ctx, tx, pending).Return(payoutTxn, nil)
	d.settleRepo.EXPECT().UpdateDecision(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, stl *domain.Settlement) error {
			assert.Equal(t, domain.SettlementStatusPaid, stl.Status)
			assert.Equal(t, operatorID, *stl.OperatorID)
			assert.Equal(t, payoutTxn.ID, *stl.TransactionID)
			assert.NotNil(t, stl.DecidedAt)
			return nil
		})
	d.agentRepo.EXPECT().GetProfile(ctx, agentID).Return(activeAgentProfile(agentID), nil)

	stl, err := d.svc.Approve(ctx, settlementID, operatorID)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusPaid, stl.Status)
}

func TestSettlementService_Approve_AlreadyProcessed(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	settlementID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.settleRepo.EXPECT().GetByIDForUpdate(ctx, tx, settlementID).Return(&domain.Settlement{
		ID: settlementID, Status: domain.SettlementStatusPaid,
	}, nil)

	stl, err := d.svc.Approve(ctx, settlementID, uuid.New())
	assert.Nil(t, stl)
	assertAppError(t, err, "STL_001")
}

func TestSettlementService_Approve_NotFound(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.settleRepo.EXPECT().GetByIDForUpdate(ctx, tx, gomock.Any()).Return(nil, nil)

	stl, err := d.svc.Approve(ctx, uuid.New(), uuid.New())
	assert.Nil(t, stl)
	assertAppError(t, err, "VAL_003")
}

func TestSettlementService_Reject_Success(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	settlementID := uuid.New()
	agentID := uuid.New()
	operatorID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.settleRepo.EXPECT().GetByIDForUpdate(ctx, tx, settlementID).Return(&domain.Settlement{
		ID: settlementID, Number: "STL-20260827-00C0FFEE", AgentID: agentID,
		Currency: domain.CurrencyUSD, Status: domain.SettlementStatusPending,
	}, nil)
	d.settleRepo.EXPECT().UpdateDecision(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, stl *domain.Settlement) error {
			assert.Equal(t, domain.SettlementStatusRejected, stl.Status)
			assert.Equal(t, "cash count mismatch", *stl.RejectionReason)
			return nil
		})
	d.agentRepo.EXPECT().GetProfile(ctx, agentID).Return(activeAgentProfile(agentID), nil)

	stl, err := d.svc.Reject(ctx, settlementID, operatorID, "cash count mismatch")
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusRejected, stl.Status)
	assert.Equal(t, operatorID, *stl.OperatorID)
}

func TestSettlementService_Reject_AlreadyDecided(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	settlementID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.settleRepo.EXPECT().GetByIDForUpdate(ctx, tx, settlementID).Return(&domain.Settlement{
		ID: settlementID, Status: domain.SettlementStatusRejected,
	}, nil)

	stl, err := d.svc.Reject(ctx, settlementID, uuid.New(), "late")
	assert.Nil(t, stl)
	assertAppError(t, err, "STL_001")
}
