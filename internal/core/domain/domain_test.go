package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Reversible(t *testing.T) {
	tx := &Transaction{Kind: KindTransfer, Status: TransactionStatusCompleted}
	assert.True(t, tx.Reversible())

	tx.Status = TransactionStatusReversed
	assert.False(t, tx.Reversible())

	tx.Status = TransactionStatusPending
	assert.False(t, tx.Reversible())

	// A reversal can never itself be reversed.
	rev := &Transaction{Kind: KindReversal, Status: TransactionStatusCompleted}
	assert.False(t, rev.Reversible())
}

func TestNewReferenceNumber(t *testing.T) {
	ref := NewReferenceNumber(KindSettlement)
	assert.True(t, strings.HasPrefix(ref, "STL-"))

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		r := NewReferenceNumber(KindDeposit)
		assert.True(t, strings.HasPrefix(r, "DEP-"))
		_, dup := seen[r]
		assert.False(t, dup, "reference numbers must be unique")
		seen[r] = struct{}{}
	}
}

func TestPostings_BalancedAndInverted(t *testing.T) {
	txID := uuid.New()
	walletID := uuid.New()

	postings := []Posting{
		WalletPosting(txID, walletID, CurrencyUSD, 9900),
		InternalPosting(txID, InternalFeesCollected, CurrencyUSD, 100),
		InternalPosting(txID, InternalAgentsLedger, CurrencyUSD, -10000),
	}
	require.True(t, Balanced(postings))

	revID := uuid.New()
	inv := Inverted(postings, revID)
	require.Len(t, inv, 3)
	assert.True(t, Balanced(inv))
	for i, p := range inv {
		assert.Equal(t, revID, p.TransactionID)
		assert.Equal(t, -postings[i].Amount, p.Amount)
	}

	unbalanced := []Posting{WalletPosting(txID, walletID, CurrencyUSD, 1)}
	assert.False(t, Balanced(unbalanced))
}

func TestWallet_Spendable(t *testing.T) {
	w := &Wallet{Balance: 1000, Frozen: 250}
	assert.Equal(t, int64(750), w.Spendable())
}

func TestInternalAccountKind_Valid(t *testing.T) {
	for _, k := range InternalAccountKinds() {
		assert.True(t, k.Valid())
	}
	assert.False(t, InternalAccountKind("RESERVES").Valid())
}

func TestAgentBalance_CanExtendCredit(t *testing.T) {
	b := &AgentBalance{CurrentCredit: 900, CreditLimit: 1000}
	assert.True(t, b.CanExtendCredit(100))
	assert.False(t, b.CanExtendCredit(101))
}

func TestSettlement_Decidable(t *testing.T) {
	s := &Settlement{Status: SettlementStatusPending}
	assert.True(t, s.Decidable())

	for _, st := range []SettlementStatus{SettlementStatusApproved, SettlementStatusRejected, SettlementStatusPaid} {
		s.Status = st
		assert.False(t, s.Decidable())
	}
}

func TestNewReconciliationReport(t *testing.T) {
	r := NewReconciliationReport(CurrencyUSD, 125000, -125000)
	assert.True(t, r.Balanced)
	assert.Equal(t, int64(0), r.Delta)

	// One cent off stays within the USD epsilon.
	r = NewReconciliationReport(CurrencyUSD, 125000, -124999)
	assert.True(t, r.Balanced)
	assert.Equal(t, int64(1), r.Delta)

	r = NewReconciliationReport(CurrencyUSD, 125000, -124997)
	assert.False(t, r.Balanced)
	assert.Equal(t, int64(3), r.Delta)

	// SYP tolerates nothing.
	r = NewReconciliationReport(CurrencySYP, 500, -499)
	assert.False(t, r.Balanced)
}
