package domain

import "time"

// ReconciliationReport is the structured result of a zero-sum check for one
// currency. Actual is the sum of all wallet balances plus all internal
// account balances; the expected value is always zero. A nonzero Delta is
// reported, never thrown, so callers can alert without crashing.
type ReconciliationReport struct {
	Currency      Currency  `json:"currency"`
	WalletTotal   int64     `json:"wallet_total"`
	InternalTotal int64     `json:"internal_total"`
	Expected      int64     `json:"expected"`
	Actual        int64     `json:"actual"`
	Delta         int64     `json:"delta"`
	Balanced      bool      `json:"balanced"`
	CheckedAt     time.Time `json:"checked_at"`
}

// NewReconciliationReport builds a report from the two aggregates, applying
// the currency's epsilon before flagging a discrepancy.
func NewReconciliationReport(currency Currency, walletTotal, internalTotal int64) ReconciliationReport {
	actual := walletTotal + internalTotal
	delta := actual
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	return ReconciliationReport{
		Currency:      currency,
		WalletTotal:   walletTotal,
		InternalTotal: internalTotal,
		Expected:      0,
		Actual:        actual,
		Delta:         delta,
		Balanced:      abs <= currency.Epsilon(),
		CheckedAt:     time.Now().UTC(),
	}
}
