package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByUser(ctx context.Context, userID uuid.UUID, currency domain.Currency, walletType domain.WalletType) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.UserID == userID && w.Currency == currency && w.Type == walletType {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) GetByUserForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, walletType domain.WalletType) (*domain.Wallet, error) {
	return r.GetByUser(ctx, userID, currency, walletType)
}

func (r *inMemoryWalletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance += delta
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWalletRepo) SumBalances(ctx context.Context, currency domain.Currency) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, w := range r.wallets {
		if w.Currency == currency {
			sum += w.Balance
		}
	}
	return sum, nil
}

// userForWallet resolves the owning user of a wallet (limit aggregation).
func (r *inMemoryWalletRepo) userForWallet(walletID uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return uuid.Nil, false
	}
	return w.UserID, true
}

// --- In-Memory Internal Account Repo ---

type inMemoryInternalAccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]*domain.InternalAccount
}

func newInMemoryInternalAccountRepo() *inMemoryInternalAccountRepo {
	return &inMemoryInternalAccountRepo{accounts: make(map[string]*domain.InternalAccount)}
}

func internalKey(kind domain.InternalAccountKind, currency domain.Currency) string {
	return string(kind) + ":" + string(currency)
}

func (r *inMemoryInternalAccountRepo) Get(ctx context.Context, kind domain.InternalAccountKind, currency domain.Currency) (*domain.InternalAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[internalKey(kind, currency)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryInternalAccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, kind domain.InternalAccountKind, currency domain.Currency, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := internalKey(kind, currency)
	a, ok := r.accounts[key]
	if !ok {
		a = &domain.InternalAccount{Kind: kind, Currency: currency}
		r.accounts[key] = a
	}
	a.Balance += delta
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryInternalAccountRepo) SumBalances(ctx context.Context, currency domain.Currency) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, a := range r.accounts {
		if a.Currency == currency {
			sum += a.Balance
		}
	}
	return sum, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
	postings     map[uuid.UUID][]domain.Posting
	wallets      *inMemoryWalletRepo
}

func newInMemoryTransactionRepo(wallets *inMemoryWalletRepo) *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		transactions: make(map[uuid.UUID]*domain.Transaction),
		postings:     make(map[uuid.UUID][]domain.Posting),
		wallets:      wallets,
	}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction, postings []domain.Posting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	r.postings[t.ID] = append([]domain.Posting(nil), postings...)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetPostings(ctx context.Context, transactionID uuid.UUID) ([]domain.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Posting(nil), r.postings[transactionID]...), nil
}

func (r *inMemoryTransactionRepo) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next domain.TransactionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok || t.Status != expected {
		return false, nil
	}
	t.Status = next
	return true, nil
}

func (r *inMemoryTransactionRepo) SumCompletedForUserSince(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, t := range r.transactions {
		if t.Status != domain.TransactionStatusCompleted || t.Currency != currency || t.CreatedAt.Before(since) {
			continue
		}
		if t.SenderWalletID != nil {
			if owner, ok := r.wallets.userForWallet(*t.SenderWalletID); ok && owner == userID {
				sum += t.Gross
				continue
			}
		}
		if t.Kind == domain.KindDeposit && t.ReceiverWalletID != nil {
			if owner, ok := r.wallets.userForWallet(*t.ReceiverWalletID); ok && owner == userID {
				sum += t.Gross
			}
		}
	}
	return sum, nil
}

// --- In-Memory Agent Repo ---

type inMemoryAgentRepo struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*domain.AgentProfile
	balances map[string]*domain.AgentBalance
}

func newInMemoryAgentRepo() *inMemoryAgentRepo {
	return &inMemoryAgentRepo{
		profiles: make(map[uuid.UUID]*domain.AgentProfile),
		balances: make(map[string]*domain.AgentBalance),
	}
}

func agentKey(agentID uuid.UUID, currency domain.Currency) string {
	return agentID.String() + ":" + string(currency)
}

func (r *inMemoryAgentRepo) putProfile(p *domain.AgentProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.ID] = &cp
}

func (r *inMemoryAgentRepo) putBalance(b *domain.AgentBalance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.balances[agentKey(b.AgentID, b.Currency)] = &cp
}

func (r *inMemoryAgentRepo) GetProfile(ctx context.Context, agentID uuid.UUID) (*domain.AgentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[agentID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryAgentRepo) GetBalance(ctx context.Context, agentID uuid.UUID, currency domain.Currency) (*domain.AgentBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.balances[agentKey(agentID, currency)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *inMemoryAgentRepo) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency) (*domain.AgentBalance, error) {
	return r.GetBalance(ctx, agentID, currency)
}

func (r *inMemoryAgentRepo) SetBalance(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency, currentCredit, cashCollected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[agentKey(agentID, currency)]
	if !ok {
		return fmt.Errorf("agent balance not found")
	}
	b.CurrentCredit = currentCredit
	b.CashCollected = cashCollected
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Settlement Repo ---

type inMemorySettlementRepo struct {
	mu          sync.RWMutex
	settlements map[uuid.UUID]*domain.Settlement
}

func newInMemorySettlementRepo() *inMemorySettlementRepo {
	return &inMemorySettlementRepo{settlements: make(map[uuid.UUID]*domain.Settlement)}
}

func (r *inMemorySettlementRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.settlements[s.ID] = &cp
	return nil
}

func (r *inMemorySettlementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settlements[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *inMemorySettlementRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Settlement, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemorySettlementRepo) HasPendingForAgent(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, currency domain.Currency) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.settlements {
		if s.AgentID == agentID && s.Currency == currency && s.Status == domain.SettlementStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemorySettlementRepo) UpdateDecision(ctx context.Context, tx pgx.Tx, s *domain.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settlements[s.ID]; !ok {
		return fmt.Errorf("settlement not found")
	}
	cp := *s
	r.settlements[s.ID] = &cp
	return nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[log.Key]; ok {
		// Mirrors the unique constraint on the durable table.
		return fmt.Errorf("duplicate idempotency key")
	}
	r.logs[log.Key] = log
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	return l, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// --- In-Memory Transactor (serializing) ---

// inMemoryTransactor serializes transactions with one global mutex held from
// Begin until Commit or Rollback. The in-memory repos have no row locks, so
// without serialization two concurrent withdrawals could both pass the
// balance check they read under FOR UPDATE in production.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serialTx{release: &t.mu}, nil
}

// serialTx is a no-op pgx.Tx that releases the transactor's mutex exactly
// once, on Commit or on the deferred Rollback, whichever comes first.
type serialTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *serialTx) done() {
	t.once.Do(t.release.Unlock)
}

func (t *serialTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *serialTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *serialTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *serialTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serialTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serialTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serialTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serialTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serialTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serialTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *serialTx) Conn() *pgx.Conn { return nil }
