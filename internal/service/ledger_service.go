package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports"
	"mobile-money-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// maxAttempts covers one internal retry of the whole atomic unit on
// infrastructure failure. Business rejections are never retried.
const maxAttempts = 2

// LedgerServiceImpl implements ports.LedgerService. Every operation runs as
// one database transaction: lock the affected rows, verify the business
// rules, apply balanced posting deltas, write the transaction record,
// commit. Wallet pairs are locked in ID order so two concurrent transfers
// cannot deadlock.
type LedgerServiceImpl struct {
	walletRepo   ports.WalletRepository
	internalRepo ports.InternalAccountRepository
	txRepo       ports.TransactionRepository
	agentRepo    ports.AgentRepository
	idempRepo    ports.IdempotencyRepository
	idempCache   ports.IdempotencyCache
	transactor   ports.DBTransactor
	audit        ports.AuditService
	notifier     ports.NotificationDispatcher
	schedule     domain.FeeSchedule
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	internalRepo ports.InternalAccountRepository,
	txRepo ports.TransactionRepository,
	agentRepo ports.AgentRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	notifier ports.NotificationDispatcher,
	schedule domain.FeeSchedule,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo:   walletRepo,
		internalRepo: internalRepo,
		txRepo:       txRepo,
		agentRepo:    agentRepo,
		idempRepo:    idempRepo,
		idempCache:   idempCache,
		transactor:   transactor,
		audit:        audit,
		notifier:     notifier,
		schedule:     schedule,
		log:          log,
	}
}

// Deposit converts physical cash handed to an agent into wallet money. The
// agent's float credit grows by the gross amount against their credit
// limit; the customer receives the net amount after the deposit fee.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
	if err := s.validateAmount(req.Amount, req.Currency); err != nil {
		return nil, err
	}
	if _, err := s.activeAgent(ctx, req.AgentID); err != nil {
		return nil, err
	}

	idempKey := ""
	if req.ClientReference != "" {
		idempKey = domain.BuildOperationKey(req.CustomerID, domain.KindDeposit, req.ClientReference)
	}
	if cached, err := s.checkReplay(ctx, idempKey); cached != nil || err != nil {
		return cached, err
	}

	breakdown := domain.CalculateFee(req.Amount, s.schedule.RuleFor(domain.KindDeposit, req.Currency))

	txn, err := s.runAtomic(ctx, func(dbTx pgx.Tx) (*domain.Transaction, error) {
		agentBal, err := s.agentRepo.GetBalanceForUpdate(ctx, dbTx, req.AgentID, req.Currency)
		if err != nil {
			return nil, fmt.Errorf("lock agent balance: %w", err)
		}
		if agentBal == nil {
			return nil, apperror.ErrNotFound("agent balance")
		}
		if !agentBal.CanExtendCredit(req.Amount) {
			return nil, apperror.ErrInsufficientAgentCreditLimit()
		}

		wallet, err := s.walletRepo.GetByUserForUpdate(ctx, dbTx, req.CustomerID, req.Currency, domain.WalletTypePersonal)
		if err != nil {
			return nil, fmt.Errorf("lock customer wallet: %w", err)
		}
		if wallet == nil {
			return nil, apperror.ErrNotFound("customer wallet")
		}

		if err := s.checkSpendingLimits(ctx, dbTx, req.CustomerID, req.Currency, req.Amount); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:               uuid.New(),
			ReferenceNumber:  domain.NewReferenceNumber(domain.KindDeposit),
			Kind:             domain.KindDeposit,
			Currency:         req.Currency,
			Gross:            breakdown.Gross,
			Fee:              breakdown.Fee,
			Net:              breakdown.Net,
			PlatformShare:    breakdown.PlatformShare,
			AgentShare:       breakdown.AgentShare,
			ReceiverWalletID: &wallet.ID,
			AgentID:          &req.AgentID,
			AgentCreditDelta: req.Amount,
			AgentCashDelta:   req.Amount,
			Status:           domain.TransactionStatusCompleted,
			Metadata:         req.Metadata,
			CreatedAt:        now,
			CompletedAt:      &now,
		}
		postings := []domain.Posting{
			domain.WalletPosting(txn.ID, wallet.ID, req.Currency, breakdown.Net),
			domain.InternalPosting(txn.ID, domain.InternalFeesCollected, req.Currency, breakdown.Fee),
			domain.InternalPosting(txn.ID, domain.InternalAgentsLedger, req.Currency, -breakdown.Gross),
		}

		if err := s.applyPostings(ctx, dbTx, postings); err != nil {
			return nil, err
		}
		err = s.agentRepo.SetBalance(ctx, dbTx, req.AgentID, req.Currency,
			agentBal.CurrentCredit+req.Amount, agentBal.CashCollected+req.Amount)
		if err != nil {
			return nil, fmt.Errorf("update agent balance: %w", err)
		}
		if err := s.txRepo.Create(ctx, dbTx, txn, postings); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
		if err := s.saveIdempotencyLog(ctx, dbTx, idempKey, txn); err != nil {
			return nil, err
		}
		return txn, nil
	})
	if err != nil {
		return nil, err
	}

	s.finalize(ctx, idempKey, txn, "ledger.deposit", req.CustomerID,
		"Deposit received",
		fmt.Sprintf("Your wallet was credited %s.", req.Currency.FormatMinor(breakdown.Net)))
	return txn, nil
}

// Withdraw pays out physical cash from a customer's wallet through an
// agent. The withdraw fee splits between the platform and the agent; the
// agent's credit grows by gross minus their fee share.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*domain.Transaction, error) {
	if err := s.validateAmount(req.Amount, req.Currency); err != nil {
		return nil, err
	}
	if _, err := s.activeAgent(ctx, req.AgentID); err != nil {
		return nil, err
	}

	idempKey := ""
	if req.ClientReference != "" {
		idempKey = domain.BuildOperationKey(req.CustomerID, domain.KindWithdraw, req.ClientReference)
	}
	if cached, err := s.checkReplay(ctx, idempKey); cached != nil || err != nil {
		return cached, err
	}

	breakdown := domain.CalculateFee(req.Amount, s.schedule.RuleFor(domain.KindWithdraw, req.Currency))
	creditDelta := breakdown.Gross - breakdown.AgentShare
	cashDelta := -(breakdown.Gross - breakdown.Fee)

	txn, err := s.runAtomic(ctx, func(dbTx pgx.Tx) (*domain.Transaction, error) {
		agentBal, err := s.agentRepo.GetBalanceForUpdate(ctx, dbTx, req.AgentID, req.Currency)
		if err != nil {
			return nil, fmt.Errorf("lock agent balance: %w", err)
		}
		if agentBal == nil {
			return nil, apperror.ErrNotFound("agent balance")
		}
		if !agentBal.CanExtendCredit(creditDelta) {
			return nil, apperror.ErrInsufficientAgentCreditLimit()
		}

		wallet, err := s.walletRepo.GetByUserForUpdate(ctx, dbTx, req.CustomerID, req.Currency, domain.WalletTypePersonal)
		if err != nil {
			return nil, fmt.Errorf("lock customer wallet: %w", err)
		}
		if wallet == nil {
			return nil, apperror.ErrNotFound("customer wallet")
		}
		if wallet.Spendable() < req.Amount {
			return nil, apperror.ErrInsufficientFunds()
		}

		if err := s.checkSpendingLimits(ctx, dbTx, req.CustomerID, req.Currency, req.Amount); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:               uuid.New(),
			ReferenceNumber:  domain.NewReferenceNumber(domain.KindWithdraw),
			Kind:             domain.KindWithdraw,
			Currency:         req.Currency,
			Gross:            breakdown.Gross,
			Fee:              breakdown.Fee,
			Net:              breakdown.Net,
			PlatformShare:    breakdown.PlatformShare,
			AgentShare:       breakdown.AgentShare,
			SenderWalletID:   &wallet.ID,
			AgentID:          &req.AgentID,
			AgentCreditDelta: creditDelta,
			AgentCashDelta:   cashDelta,
			Status:           domain.TransactionStatusCompleted,
			Metadata:         req.Metadata,
			CreatedAt:        now,
			CompletedAt:      &now,
		}
		postings := []domain.Posting{
			domain.WalletPosting(txn.ID, wallet.ID, req.Currency, -breakdown.Gross),
			domain.InternalPosting(txn.ID, domain.InternalFeesCollected, req.Currency, breakdown.PlatformShare),
			domain.InternalPosting(txn.ID, domain.InternalAgentsLedger, req.Currency, breakdown.Gross-breakdown.PlatformShare),
		}

		if err := s.applyPostings(ctx, dbTx, postings); err != nil {
			return nil, err
		}
		err = s.agentRepo.SetBalance(ctx, dbTx, req.AgentID, req.Currency,
			agentBal.CurrentCredit+creditDelta, agentBal.CashCollected+cashDelta)
		if err != nil {
			return nil, fmt.Errorf("update agent balance: %w", err)
		}
		if err := s.txRepo.Create(ctx, dbTx, txn, postings); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
		if err := s.saveIdempotencyLog(ctx, dbTx, idempKey, txn); err != nil {
			return nil, err
		}
		return txn, nil
	})
	if err != nil {
		return nil, err
	}

	s.finalize(ctx, idempKey, txn, "ledger.withdraw", req.CustomerID,
		"Withdrawal completed",
		fmt.Sprintf("You withdrew %s in cash.", req.Currency.FormatMinor(breakdown.Net)))
	return txn, nil
}

// Transfer moves money between two personal wallets. The sender pays the
// gross amount; the receiver gets the net after the transfer fee.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	return s.walletToWallet(ctx, walletToWalletParams{
		kind:            domain.KindTransfer,
		senderID:        req.SenderID,
		receiverID:      req.ReceiverID,
		receiverType:    domain.WalletTypePersonal,
		amount:          req.Amount,
		currency:        req.Currency,
		clientReference: req.ClientReference,
		metadata:        req.Metadata,
		receiverTitle:   "Money received",
		receiverBody:    "You received %s.",
	})
}

// QRPayment settles a merchant QR code from the payer's personal wallet
// into the merchant's business wallet, applying the merchant fee schedule.
func (s *LedgerServiceImpl) QRPayment(ctx context.Context, req ports.QRPaymentRequest) (*domain.Transaction, error) {
	return s.walletToWallet(ctx, walletToWalletParams{
		kind:            domain.KindQRPayment,
		senderID:        req.PayerID,
		receiverID:      req.MerchantID,
		receiverType:    domain.WalletTypeBusiness,
		amount:          req.Amount,
		currency:        req.Currency,
		clientReference: req.ClientReference,
		metadata:        req.Metadata,
		receiverTitle:   "Payment received",
		receiverBody:    "A customer paid you %s.",
	})
}

type walletToWalletParams struct {
	kind            domain.TransactionKind
	senderID        uuid.UUID
	receiverID      uuid.UUID
	receiverType    domain.WalletType
	amount          int64
	currency        domain.Currency
	clientReference string
	metadata        map[string]string
	receiverTitle   string
	receiverBody    string // format string taking the net amount
}

// walletToWallet is the shared path for transfers and QR payments: debit
// the sender gross, credit the receiver net, collect the fee.
func (s *LedgerServiceImpl) walletToWallet(ctx context.Context, p walletToWalletParams) (*domain.Transaction, error) {
	if err := s.validateAmount(p.amount, p.currency); err != nil {
		return nil, err
	}
	if p.senderID == p.receiverID {
		return nil, apperror.Validation("sender and receiver must differ")
	}

	idempKey := ""
	if p.clientReference != "" {
		idempKey = domain.BuildOperationKey(p.senderID, p.kind, p.clientReference)
	}
	if cached, err := s.checkReplay(ctx, idempKey); cached != nil || err != nil {
		return cached, err
	}

	breakdown := domain.CalculateFee(p.amount, s.schedule.RuleFor(p.kind, p.currency))

	txn, err := s.runAtomic(ctx, func(dbTx pgx.Tx) (*domain.Transaction, error) {
		sender, receiver, err := s.lockWalletPair(ctx, dbTx, p)
		if err != nil {
			return nil, err
		}
		if sender.Spendable() < p.amount {
			return nil, apperror.ErrInsufficientFunds()
		}

		if err := s.checkSpendingLimits(ctx, dbTx, p.senderID, p.currency, p.amount); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:               uuid.New(),
			ReferenceNumber:  domain.NewReferenceNumber(p.kind),
			Kind:             p.kind,
			Currency:         p.currency,
			Gross:            breakdown.Gross,
			Fee:              breakdown.Fee,
			Net:              breakdown.Net,
			PlatformShare:    breakdown.PlatformShare,
			AgentShare:       breakdown.AgentShare,
			SenderWalletID:   &sender.ID,
			ReceiverWalletID: &receiver.ID,
			Status:           domain.TransactionStatusCompleted,
			Metadata:         p.metadata,
			CreatedAt:        now,
			CompletedAt:      &now,
		}
		postings := []domain.Posting{
			domain.WalletPosting(txn.ID, sender.ID, p.currency, -breakdown.Gross),
			domain.WalletPosting(txn.ID, receiver.ID, p.currency, breakdown.Net),
			domain.InternalPosting(txn.ID, domain.InternalFeesCollected, p.currency, breakdown.Fee),
		}

		if err := s.applyPostings(ctx, dbTx, postings); err != nil {
			return nil, err
		}
		if err := s.txRepo.Create(ctx, dbTx, txn, postings); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
		if err := s.saveIdempotencyLog(ctx, dbTx, idempKey, txn); err != nil {
			return nil, err
		}
		return txn, nil
	})
	if err != nil {
		return nil, err
	}

	s.finalize(ctx, idempKey, txn, "ledger."+string(p.kind), p.senderID,
		"Payment sent",
		fmt.Sprintf("You sent %s.", p.currency.FormatMinor(breakdown.Gross)))
	s.notifier.Dispatch(ctx, p.receiverID, p.receiverTitle,
		fmt.Sprintf(p.receiverBody, p.currency.FormatMinor(breakdown.Net)),
		map[string]string{"reference": txn.ReferenceNumber})
	return txn, nil
}

// lockWalletPair locks the sender and receiver wallets in user-ID order so
// two opposite concurrent transfers cannot deadlock.
func (s *LedgerServiceImpl) lockWalletPair(ctx context.Context, dbTx pgx.Tx, p walletToWalletParams) (*domain.Wallet, *domain.Wallet, error) {
	lock := func(userID uuid.UUID, walletType domain.WalletType, label string) (*domain.Wallet, error) {
		w, err := s.walletRepo.GetByUserForUpdate(ctx, dbTx, userID, p.currency, walletType)
		if err != nil {
			return nil, fmt.Errorf("lock %s wallet: %w", label, err)
		}
		if w == nil {
			return nil, apperror.ErrNotFound(label + " wallet")
		}
		return w, nil
	}

	if p.senderID.String() < p.receiverID.String() {
		sender, err := lock(p.senderID, domain.WalletTypePersonal, "sender")
		if err != nil {
			return nil, nil, err
		}
		receiver, err := lock(p.receiverID, p.receiverType, "receiver")
		if err != nil {
			return nil, nil, err
		}
		return sender, receiver, nil
	}
	receiver, err := lock(p.receiverID, p.receiverType, "receiver")
	if err != nil {
		return nil, nil, err
	}
	sender, err := lock(p.senderID, domain.WalletTypePersonal, "sender")
	if err != nil {
		return nil, nil, err
	}
	return sender, receiver, nil
}

// InternalTransfer moves money fee-free between the same user's wallet
// types.
func (s *LedgerServiceImpl) InternalTransfer(ctx context.Context, req ports.InternalTransferRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if !req.Currency.Valid() {
		return nil, apperror.ErrUnsupportedCurrency(string(req.Currency))
	}
	if !req.From.Valid() || !req.To.Valid() {
		return nil, apperror.Validation("unknown wallet type")
	}
	if req.From == req.To {
		return nil, apperror.Validation("source and destination wallet types must differ")
	}

	txn, err := s.runAtomic(ctx, func(dbTx pgx.Tx) (*domain.Transaction, error) {
		// Same user owns both wallets; lock in type order for determinism.
		first, second := req.From, req.To
		if string(second) < string(first) {
			first, second = second, first
		}
		wallets := map[domain.WalletType]*domain.Wallet{}
		for _, wt := range []domain.WalletType{first, second} {
			w, err := s.walletRepo.GetByUserForUpdate(ctx, dbTx, req.UserID, req.Currency, wt)
			if err != nil {
				return nil, fmt.Errorf("lock %s wallet: %w", wt, err)
			}
			if w == nil {
				return nil, apperror.ErrNotFound(string(wt) + " wallet")
			}
			wallets[wt] = w
		}
		from, to := wallets[req.From], wallets[req.To]
		if from.Spendable() < req.Amount {
			return nil, apperror.ErrInsufficientFunds()
		}

		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:               uuid.New(),
			ReferenceNumber:  domain.NewReferenceNumber(domain.KindInternalTransfer),
			Kind:             domain.KindInternalTransfer,
			Currency:         req.Currency,
			Gross:            req.Amount,
			Net:              req.Amount,
			SenderWalletID:   &from.ID,
			ReceiverWalletID: &to.ID,
			Status:           domain.TransactionStatusCompleted,
			CreatedAt:        now,
			CompletedAt:      &now,
		}
		postings := []domain.Posting{
			domain.WalletPosting(txn.ID, from.ID, req.Currency, -req.Amount),
			domain.WalletPosting(txn.ID, to.ID, req.Currency, req.Amount),
		}

		if err := s.applyPostings(ctx, dbTx, postings); err != nil {
			return nil, err
		}
		if err := s.txRepo.Create(ctx, dbTx, txn, postings); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
		return txn, nil
	})
	if err != nil {
		return nil, err
	}

	s.finalize(ctx, "", txn, "ledger.internal_transfer", req.UserID,
		"Wallet transfer completed",
		fmt.Sprintf("You moved %s between your wallets.", req.Currency.FormatMinor(req.Amount)))
	return txn, nil
}

// CreditGrant seeds liquidity from the central reserve into a wallet. No
// fee, no limits; this is how money enters the system.
func (s *LedgerServiceImpl) CreditGrant(ctx context.Context, req ports.CreditGrantRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if !req.Currency.Valid() {
		return nil, apperror.ErrUnsupportedCurrency(string(req.Currency))
	}
	walletType := req.WalletType
	if walletType == "" {
		walletType = domain.WalletTypePersonal
	}
	if !walletType.Valid() {
		return nil, apperror.Validation("unknown wallet type")
	}

	txn, err := s.runAtomic(ctx, func(dbTx pgx.Tx) (*domain.Transaction, error) {
		wallet, err := s.walletRepo.GetByUserForUpdate(ctx, dbTx, req.ReceiverID, req.Currency, walletType)
		if err != nil {
			return nil, fmt.Errorf("lock receiver wallet: %w", err)
		}
		if wallet == nil {
			return nil, apperror.ErrNotFound("receiver wallet")
		}

		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:               uuid.New(),
			ReferenceNumber:  domain.NewReferenceNumber(domain.KindCreditGrant),
			Kind:             domain.KindCreditGrant,
			Currency:         req.Currency,
			Gross:            req.Amount,
			Net:              req.Amount,
			ReceiverWalletID: &wallet.ID,
			Status:           domain.TransactionStatusCompleted,
			Metadata:         req.Metadata,
			CreatedAt:        now,
			CompletedAt:      &now,
		}
		postings := []domain.Posting{
			domain.InternalPosting(txn.ID, domain.InternalReserve, req.Currency, -req.Amount),
			domain.WalletPosting(txn.ID, wallet.ID, req.Currency, req.Amount),
		}

		if err := s.applyPostings(ctx, dbTx, postings); err != nil {
			return nil, err
		}
		if err := s.txRepo.Create(ctx, dbTx, txn, postings); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
		return txn, nil
	})
	if err != nil {
		return nil, err
	}

	s.finalize(ctx, "", txn, "ledger.credit_grant", req.ReceiverID,
		"Wallet credited",
		fmt.Sprintf("Your wallet was credited %s.", req.Currency.FormatMinor(req.Amount)))
	return txn, nil
}

// Reverse posts a compensating transaction that exactly inverts the
// original's postings and agent deltas. Only COMPLETED non-reversal
// transactions qualify, and the COMPLETED -> REVERSED status guard ensures
// a transaction reverses at most once even under races. Agent-mediated
// transactions additionally require the float to still carry the original
// deltas; after a settlement they do not, and the reversal is refused.
func (s *LedgerServiceImpl) Reverse(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	orig, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find original transaction: %w", err))
	}
	if orig == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if !orig.Reversible() {
		return nil, apperror.ErrNotReversible()
	}

	origPostings, err := s.txRepo.GetPostings(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load original postings: %w", err))
	}
	if len(origPostings) == 0 {
		return nil, apperror.ErrDataIntegrityViolation("original transaction has no postings")
	}

	txn, err := s.runAtomic(ctx, func(dbTx pgx.Tx) (*domain.Transaction, error) {
		var agentBal *domain.AgentBalance
		if orig.AgentID != nil {
			bal, err := s.agentRepo.GetBalanceForUpdate(ctx, dbTx, *orig.AgentID, orig.Currency)
			if err != nil {
				return nil, fmt.Errorf("lock agent balance: %w", err)
			}
			if bal == nil {
				return nil, apperror.ErrNotFound("agent balance")
			}
			// Once a settlement zeroes the agent float, unwinding the
			// original deltas would drive credit or collected cash negative.
			if bal.CurrentCredit-orig.AgentCreditDelta < 0 || bal.CashCollected-orig.AgentCashDelta < 0 {
				return nil, apperror.ErrNotReversible()
			}
			agentBal = bal
		}

		ok, err := s.txRepo.UpdateStatusIf(ctx, dbTx, orig.ID,
			domain.TransactionStatusCompleted, domain.TransactionStatusReversed)
		if err != nil {
			return nil, fmt.Errorf("mark original reversed: %w", err)
		}
		if !ok {
			return nil, apperror.ErrNotReversible()
		}

		now := time.Now().UTC()
		revTxn := &domain.Transaction{
			ID:               uuid.New(),
			ReferenceNumber:  domain.NewReferenceNumber(domain.KindReversal),
			Kind:             domain.KindReversal,
			Currency:         orig.Currency,
			Gross:            orig.Gross,
			Fee:              orig.Fee,
			Net:              orig.Net,
			PlatformShare:    orig.PlatformShare,
			AgentShare:       orig.AgentShare,
			SenderWalletID:   orig.SenderWalletID,
			ReceiverWalletID: orig.ReceiverWalletID,
			AgentID:          orig.AgentID,
			AgentCreditDelta: -orig.AgentCreditDelta,
			AgentCashDelta:   -orig.AgentCashDelta,
			Status:           domain.TransactionStatusCompleted,
			OriginalID:       &orig.ID,
			CreatedAt:        now,
			CompletedAt:      &now,
		}
		postings := domain.Inverted(origPostings, revTxn.ID)

		// A reversal debit can fail if the wallet holder already spent the
		// funds; the whole reversal rolls back in that case.
		for _, p := range postings {
			if p.WalletID == nil || p.Amount >= 0 {
				continue
			}
			w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, *p.WalletID)
			if err != nil {
				return nil, fmt.Errorf("lock wallet for reversal: %w", err)
			}
			if w == nil {
				return nil, apperror.ErrNotFound("wallet")
			}
			if w.Spendable() < -p.Amount {
				return nil, apperror.ErrInsufficientFunds()
			}
		}

		if err := s.applyPostings(ctx, dbTx, postings); err != nil {
			return nil, err
		}

		if agentBal != nil {
			err = s.agentRepo.SetBalance(ctx, dbTx, *orig.AgentID, orig.Currency,
				agentBal.CurrentCredit-orig.AgentCreditDelta,
				agentBal.CashCollected-orig.AgentCashDelta)
			if err != nil {
				return nil, fmt.Errorf("revert agent balance: %w", err)
			}
		}

		if err := s.txRepo.Create(ctx, dbTx, revTxn, postings); err != nil {
			return nil, fmt.Errorf("create reversal transaction: %w", err)
		}
		return revTxn, nil
	})
	if err != nil {
		return nil, err
	}

	origRef := orig.ReferenceNumber
	s.audit.Log(ctx, domain.NewAuditEntry(nil, "ledger.reverse", "transaction",
		txn.ID.String(), &origRef, &txn.ReferenceNumber))
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("original_id", orig.ID.String()).
		Str("reference", txn.ReferenceNumber).
		Msg("transaction reversed")
	return txn, nil
}

// PostSettlement writes the settlement payout legs and transaction record
// inside the caller's database transaction. The settlement workflow owns
// the surrounding atomic unit and the agent balance reset.
func (s *LedgerServiceImpl) PostSettlement(ctx context.Context, dbTx pgx.Tx, settlement *domain.Settlement) (*domain.Transaction, error) {
	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:               uuid.New(),
		ReferenceNumber:  domain.NewReferenceNumber(domain.KindSettlement),
		Kind:             domain.KindSettlement,
		Currency:         settlement.Currency,
		Gross:            settlement.CashCollected,
		Fee:              settlement.PlatformShare + settlement.AgentShare,
		Net:              settlement.AmountDue,
		PlatformShare:    settlement.PlatformShare,
		AgentShare:       settlement.AgentShare,
		AgentID:          &settlement.AgentID,
		AgentCreditDelta: -settlement.CreditUsed,
		AgentCashDelta:   -settlement.CashCollected,
		Status:           domain.TransactionStatusCompleted,
		Metadata:         map[string]string{"settlement_number": settlement.Number},
		CreatedAt:        now,
		CompletedAt:      &now,
	}
	postings := []domain.Posting{
		domain.InternalPosting(txn.ID, domain.InternalAgentsLedger, settlement.Currency, settlement.AmountDue),
		domain.InternalPosting(txn.ID, domain.InternalSettlements, settlement.Currency, -settlement.AmountDue),
	}

	if err := s.applyPostings(ctx, dbTx, postings); err != nil {
		return nil, err
	}
	if err := s.txRepo.Create(ctx, dbTx, txn, postings); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create settlement transaction: %w", err))
	}
	return txn, nil
}

// applyPostings verifies double-entry closure and applies each leg's delta.
func (s *LedgerServiceImpl) applyPostings(ctx context.Context, dbTx pgx.Tx, postings []domain.Posting) error {
	if !domain.Balanced(postings) {
		return apperror.ErrDataIntegrityViolation("postings do not sum to zero")
	}
	for _, p := range postings {
		if p.WalletID != nil {
			if err := s.walletRepo.ApplyDelta(ctx, dbTx, *p.WalletID, p.Amount); err != nil {
				return fmt.Errorf("apply wallet posting: %w", err)
			}
			continue
		}
		if err := s.internalRepo.ApplyDelta(ctx, dbTx, *p.InternalKind, p.Currency, p.Amount); err != nil {
			return fmt.Errorf("apply internal posting: %w", err)
		}
	}
	return nil
}

// runAtomic executes fn inside a database transaction, retrying once on
// infrastructure failure. Business rejections (AppErrors) pass through
// untouched and are never retried.
func (s *LedgerServiceImpl) runAtomic(ctx context.Context, fn func(dbTx pgx.Tx) (*domain.Transaction, error)) (*domain.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		txn, err := s.attempt(ctx, fn)
		if err == nil {
			return txn, nil
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		lastErr = err
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("ledger atomic unit failed")
	}
	return nil, apperror.ErrTransactionFailed(lastErr)
}

func (s *LedgerServiceImpl) attempt(ctx context.Context, fn func(dbTx pgx.Tx) (*domain.Transaction, error)) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := fn(dbTx)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return txn, nil
}

// checkReplay consults the two idempotency layers. Returns the previously
// committed transaction on a hit, nil on a miss or when no key is set.
func (s *LedgerServiceImpl) checkReplay(ctx context.Context, key string) (*domain.Transaction, error) {
	if key == "" {
		return nil, nil
	}

	// Layer 1: Redis fast path
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalCachedTransaction(cached)
	}

	// Layer 2: durable DB check
	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return unmarshalCachedTransaction(idempLog.ResponseJSON)
	}
	return nil, nil
}

// saveIdempotencyLog persists the durable replay record inside the atomic
// unit. No-op when the caller supplied no client reference.
func (s *LedgerServiceImpl) saveIdempotencyLog(ctx context.Context, dbTx pgx.Tx, key string, txn *domain.Transaction) error {
	if key == "" {
		return nil
	}
	respJSON, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	entry := &domain.IdempotencyLog{
		Key:           key,
		TransactionID: txn.ID,
		ResponseJSON:  respJSON,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.idempRepo.Create(ctx, dbTx, entry); err != nil {
		return fmt.Errorf("save idempotency log: %w", err)
	}
	return nil
}

// finalize runs the post-commit side effects: redis cache (best-effort),
// audit entry, user notification. None of these can fail the operation.
func (s *LedgerServiceImpl) finalize(ctx context.Context, idempKey string, txn *domain.Transaction, action string, userID uuid.UUID, title, body string) {
	if idempKey != "" {
		respJSON, err := json.Marshal(txn)
		if err == nil {
			if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
				s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
			}
		}
	}

	s.audit.Log(ctx, domain.NewAuditEntry(nil, action, "transaction",
		txn.ID.String(), nil, &txn.ReferenceNumber))
	s.notifier.Dispatch(ctx, userID, title, body, map[string]string{
		"reference": txn.ReferenceNumber,
	})

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("kind", string(txn.Kind)).
		Str("reference", txn.ReferenceNumber).
		Int64("gross", txn.Gross).
		Int64("fee", txn.Fee).
		Msg("ledger operation committed")
}

func (s *LedgerServiceImpl) validateAmount(amount int64, currency domain.Currency) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if !currency.Valid() {
		return apperror.ErrUnsupportedCurrency(string(currency))
	}
	limits := s.schedule.LimitsFor(currency)
	if limits.MinAmount > 0 && amount < limits.MinAmount {
		return apperror.ErrLimitExceeded("minimum amount")
	}
	if limits.MaxAmount > 0 && amount > limits.MaxAmount {
		return apperror.ErrLimitExceeded("maximum amount")
	}
	return nil
}

// checkSpendingLimits enforces the rolling per-user totals. Zero-valued
// limits are not enforced.
func (s *LedgerServiceImpl) checkSpendingLimits(ctx context.Context, dbTx pgx.Tx, userID uuid.UUID, currency domain.Currency, amount int64) error {
	limits := s.schedule.LimitsFor(currency)
	now := time.Now().UTC()
	windows := []struct {
		name  string
		since time.Time
		cap   int64
	}{
		{"daily", now.Add(-24 * time.Hour), limits.DailyLimit},
		{"weekly", now.Add(-7 * 24 * time.Hour), limits.WeeklyLimit},
		{"monthly", now.Add(-30 * 24 * time.Hour), limits.MonthlyLimit},
	}
	for _, w := range windows {
		if w.cap <= 0 {
			continue
		}
		sum, err := s.txRepo.SumCompletedForUserSince(ctx, dbTx, userID, currency, w.since)
		if err != nil {
			return fmt.Errorf("sum %s window: %w", w.name, err)
		}
		if sum+amount > w.cap {
			return apperror.ErrLimitExceeded(w.name + " limit")
		}
	}
	return nil
}

func (s *LedgerServiceImpl) activeAgent(ctx context.Context, agentID uuid.UUID) (*domain.AgentProfile, error) {
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
	return profile, nil
}

func unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
	}
	return &txn, nil
}
