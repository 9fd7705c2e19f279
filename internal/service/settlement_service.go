package service

import (
	"context"
	"fmt"
	"time"

	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports"
	"mobile-money-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService. It is the only
// writer of settlement records; money movement is delegated to the ledger
// engine inside the same database transaction.
type SettlementServiceImpl struct {
	settleRepo ports.SettlementRepository
	agentRepo  ports.AgentRepository
	ledger     ports.LedgerService
	transactor ports.DBTransactor
	audit      ports.AuditService
	notifier   ports.NotificationDispatcher
	schedule   domain.FeeSchedule
	log        zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	settleRepo ports.SettlementRepository,
	agentRepo ports.AgentRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	notifier ports.NotificationDispatcher,
	schedule domain.FeeSchedule,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		settleRepo: settleRepo,
		agentRepo:  agentRepo,
		ledger:     ledger,
		transactor: transactor,
		audit:      audit,
		notifier:   notifier,
		schedule:   schedule,
		log:        log,
	}
}

// Create opens a settlement request snapshotting the agent's current float
// position. At most one PENDING settlement may exist per agent per
// currency; the check runs under the agent balance row lock so two
// concurrent requests cannot both pass.
func (s *SettlementServiceImpl) Create(ctx context.Context, agentID uuid.UUID, currency domain.Currency, notes string) (*domain.Settlement, error) {
	if !currency.Valid() {
		return nil, apperror.ErrUnsupportedCurrency(string(currency))
	}
	profile, err := s.agentRepo.GetProfile(ctx, agentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get agent profile: %w", err))
	}
	if profile == nil {
		return nil, apperror.ErrNotFound("agent")
	}
	if !profile.Active {
		return nil, apperror.ErrAgentInactive()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// The balance row lock serializes concurrent requests for the same
	// agent and currency, so the pending check below sees any settlement
	// a racing request already committed.
	agentBal, err := s.agentRepo.GetBalanceForUpdate(ctx, dbTx, agentID, currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock agent balance: %w", err))
	}
	if agentBal == nil {
		return nil, apperror.ErrNotFound("agent balance")
	}

	pending, err := s.settleRepo.HasPendingForAgent(ctx, dbTx, agentID, currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check pending settlement: %w", err))
	}
	if pending {
		return nil, apperror.ErrPendingSettlementExists()
	}

	if agentBal.CashCollected <= 0 {
		return nil, apperror.ErrNothingToSettle()
	}

	platformShare := domain.PercentBps(agentBal.CashCollected, s.schedule.SettlementPlatformBps)
	agentShare := domain.PercentBps(agentBal.CashCollected, s.schedule.SettlementAgentBps)

	settlement := &domain.Settlement{
		ID:            uuid.New(),
		Number:        domain.NewReferenceNumber(domain.KindSettlement),
		AgentID:       agentID,
		Currency:      currency,
		CreditUsed:    agentBal.CurrentCredit,
		CashCollected: agentBal.CashCollected,
		PlatformShare: platformShare,
		AgentShare:    agentShare,
		AmountDue:     agentBal.CashCollected - platformShare - agentShare,
		Status:        domain.SettlementStatusPending,
		Notes:         notes,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.settleRepo.Create(ctx, dbTx, settlement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create settlement: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit.Log(ctx, domain.NewAuditEntry(nil, "settlement.create", "settlement",
		settlement.ID.String(), nil, &settlement.Number))
	s.notifier.Dispatch(ctx, profile.UserID, "Settlement requested",
		fmt.Sprintf("Settlement %s opened for %s.", settlement.Number, currency.FormatMinor(settlement.AmountDue)),
		map[string]string{"settlement_number": settlement.Number})

	s.log.Info().
		Str("settlement_id", settlement.ID.String()).
		Str("agent_id", agentID.String()).
		Int64("amount_due", settlement.AmountDue).
		Msg("settlement created")
	return settlement, nil
}

// Approve executes the payout: the settlement row is locked, the PENDING
// guard rejects double-processing, the agent's float resets to zero, and
// the ledger engine posts the payout legs — all in one transaction.
func (s *SettlementServiceImpl) Approve(ctx context.Context, settlementID, operatorID uuid.UUID) (*domain.Settlement, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	settlement, err := s.settleRepo.GetByIDForUpdate(ctx, dbTx, settlementID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock settlement: %w", err))
	}
	if settlement == nil {
		return nil, apperror.ErrNotFound("settlement")
	}
	if !settlement.Decidable() {
		return nil, apperror.ErrSettlementAlreadyProcessed()
	}

	agentBal, err := s.agentRepo.GetBalanceForUpdate(ctx, dbTx, settlement.AgentID, settlement.Currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock agent balance: %w", err))
	}
	if agentBal == nil {
		return nil, apperror.ErrNotFound("agent balance")
	}

	// Reset the agent's float for the settled currency.
	if err := s.agentRepo.SetBalance(ctx, dbTx, settlement.AgentID, settlement.Currency, 0, 0); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reset agent balance: %w", err))
	}

	txn, err := s.ledger.PostSettlement(ctx, dbTx, settlement)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	settlement.Status = domain.SettlementStatusPaid
	settlement.OperatorID = &operatorID
	settlement.TransactionID = &txn.ID
	settlement.DecidedAt = &now
	if err := s.settleRepo.UpdateDecision(ctx, dbTx, settlement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update settlement decision: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit.Log(ctx, domain.NewAuditEntry(&operatorID, "settlement.approve", "settlement",
		settlement.ID.String(), nil, &settlement.Number))
	s.notifyAgent(ctx, settlement, "Settlement paid",
		fmt.Sprintf("Settlement %s was approved; %s paid out.",
			settlement.Number, settlement.Currency.FormatMinor(settlement.AmountDue)))

	s.log.Info().
		Str("settlement_id", settlement.ID.String()).
		Str("operator_id", operatorID.String()).
		Str("tx_id", txn.ID.String()).
		Msg("settlement approved and paid")
	return settlement, nil
}

// Reject records the operator decision without moving money. The agent's
// float keeps accumulating.
func (s *SettlementServiceImpl) Reject(ctx context.Context, settlementID, operatorID uuid.UUID, reason string) (*domain.Settlement, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	settlement, err := s.settleRepo.GetByIDForUpdate(ctx, dbTx, settlementID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock settlement: %w", err))
	}
	if settlement == nil {
		return nil, apperror.ErrNotFound("settlement")
	}
	if !settlement.Decidable() {
		return nil, apperror.ErrSettlementAlreadyProcessed()
	}

	now := time.Now().UTC()
	settlement.Status = domain.SettlementStatusRejected
	settlement.OperatorID = &operatorID
	settlement.RejectionReason = &reason
	settlement.DecidedAt = &now
	if err := s.settleRepo.UpdateDecision(ctx, dbTx, settlement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update settlement decision: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit.Log(ctx, domain.NewAuditEntry(&operatorID, "settlement.reject", "settlement",
		settlement.ID.String(), nil, &reason))
	s.notifyAgent(ctx, settlement, "Settlement rejected",
		fmt.Sprintf("Settlement %s was rejected: %s", settlement.Number, reason))

	s.log.Info().
		Str("settlement_id", settlement.ID.String()).
		Str("operator_id", operatorID.String()).
		Str("reason", reason).
		Msg("settlement rejected")
	return settlement, nil
}

// notifyAgent resolves the agent's user and dispatches fire-and-forget.
func (s *SettlementServiceImpl) notifyAgent(ctx context.Context, settlement *domain.Settlement, title, body string) {
	profile, err := s.agentRepo.GetProfile(ctx, settlement.AgentID)
	if err != nil || profile == nil {
		s.log.Warn().Err(err).Str("agent_id", settlement.AgentID.String()).Msg("could not resolve agent for notification")
		return
	}
	s.notifier.Dispatch(ctx, profile.UserID, title, body,
		map[string]string{"settlement_number": settlement.Number})
}
