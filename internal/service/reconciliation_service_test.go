package service

import (
	"context"
	"errors"
	"testing"

	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reconciliationTestDeps struct {
	svc          *ReconciliationServiceImpl
	walletRepo   *mocks.MockWalletRepository
	internalRepo *mocks.MockInternalAccountRepository
	audit        *mocks.MockAuditService
	ctrl         *gomock.Controller
}

func setupReconciliationService(t *testing.T) *reconciliationTestDeps {
	ctrl := gomock.NewController(t)
	d := &reconciliationTestDeps{
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		internalRepo: mocks.NewMockInternalAccountRepository(ctrl),
		audit:        mocks.NewMockAuditService(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewReconciliationService(d.walletRepo, d.internalRepo, d.audit, zerolog.Nop())
	return d
}

func TestReconciliationService_Reconcile_Balanced(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.walletRepo.EXPECT().SumBalances(ctx, domain.CurrencyUSD).Return(int64(125_000), nil)
	d.internalRepo.EXPECT().SumBalances(ctx, domain.CurrencyUSD).Return(int64(-125_000), nil)

	report, err := d.svc.Reconcile(ctx, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, int64(0), report.Delta)
	assert.Equal(t, int64(125_000), report.WalletTotal)
	assert.Equal(t, int64(-125_000), report.InternalTotal)
}

func TestReconciliationService_Reconcile_DiscrepancyAudited(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.walletRepo.EXPECT().SumBalances(ctx, domain.CurrencyUSD).Return(int64(125_000), nil)
	d.internalRepo.EXPECT().SumBalances(ctx, domain.CurrencyUSD).Return(int64(-124_500), nil)
	d.audit.EXPECT().Log(ctx, gomock.Any()).
		Do(func(_ context.Context, entry *domain.AuditEntry) {
			assert.Equal(t, "reconciliation.discrepancy", entry.Action)
			assert.Equal(t, "USD", entry.EntityID)
		})

	report, err := d.svc.Reconcile(ctx, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.False(t, report.Balanced)
	assert.Equal(t, int64(500), report.Delta)
}

func TestReconciliationService_Reconcile_WithinEpsilon(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	// One minor unit of rounding slack is tolerated for USD.
	d.walletRepo.EXPECT().SumBalances(ctx, domain.CurrencyUSD).Return(int64(125_001), nil)
	d.internalRepo.EXPECT().SumBalances(ctx, domain.CurrencyUSD).Return(int64(-125_000), nil)

	report, err := d.svc.Reconcile(ctx, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, int64(1), report.Delta)
}

func TestReconciliationService_Reconcile_RepoError(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.walletRepo.EXPECT().SumBalances(ctx, domain.CurrencyUSD).Return(int64(0), errors.New("connection refused"))

	report, err := d.svc.Reconcile(ctx, domain.CurrencyUSD)
	assert.Nil(t, report)
	assert.Error(t, err)
}

func TestReconciliationService_ReconcileAll(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	for _, currency := range domain.Currencies() {
		d.walletRepo.EXPECT().SumBalances(ctx, currency).Return(int64(0), nil)
		d.internalRepo.EXPECT().SumBalances(ctx, currency).Return(int64(0), nil)
	}

	reports, err := d.svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, len(domain.Currencies()))
	for _, report := range reports {
		assert.True(t, report.Balanced)
	}
}
