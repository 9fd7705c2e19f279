package service

import (
	"context"
	"fmt"

	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// ReconciliationServiceImpl implements ports.ReconciliationService. It
// verifies the zero-sum invariant: for each currency, the sum of all wallet
// balances plus all internal account balances must be zero. A discrepancy
// is reported and audited, never thrown, so an operator can investigate
// while the system keeps serving.
type ReconciliationServiceImpl struct {
	walletRepo   ports.WalletRepository
	internalRepo ports.InternalAccountRepository
	audit        ports.AuditService
	log          zerolog.Logger
}

// NewReconciliationService creates a new ReconciliationServiceImpl.
func NewReconciliationService(
	walletRepo ports.WalletRepository,
	internalRepo ports.InternalAccountRepository,
	audit ports.AuditService,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	return &ReconciliationServiceImpl{
		walletRepo:   walletRepo,
		internalRepo: internalRepo,
		audit:        audit,
		log:          log,
	}
}

// Reconcile runs the zero-sum check for one currency.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context, currency domain.Currency) (*domain.ReconciliationReport, error) {
	walletTotal, err := s.walletRepo.SumBalances(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("sum wallet balances: %w", err)
	}
	internalTotal, err := s.internalRepo.SumBalances(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("sum internal balances: %w", err)
	}

	report := domain.NewReconciliationReport(currency, walletTotal, internalTotal)
	if report.Balanced {
		s.log.Info().
			Str("currency", string(currency)).
			Int64("wallet_total", walletTotal).
			Int64("internal_total", internalTotal).
			Msg("reconciliation balanced")
		return &report, nil
	}

	delta := currency.FormatMinor(report.Delta)
	s.log.Error().
		Str("currency", string(currency)).
		Int64("wallet_total", walletTotal).
		Int64("internal_total", internalTotal).
		Str("delta", delta).
		Msg("reconciliation discrepancy detected")
	s.audit.Log(ctx, domain.NewAuditEntry(nil, "reconciliation.discrepancy", "currency",
		string(currency), nil, &delta))
	return &report, nil
}

// ReconcileAll runs the check for every supported currency.
func (s *ReconciliationServiceImpl) ReconcileAll(ctx context.Context) ([]domain.ReconciliationReport, error) {
	reports := make([]domain.ReconciliationReport, 0, len(domain.Currencies()))
	for _, currency := range domain.Currencies() {
		report, err := s.Reconcile(ctx, currency)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}
