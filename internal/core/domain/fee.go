package domain

// FeeRule is one configured fee schedule entry: a percentage component in
// basis points plus a fixed minor-unit component, and the agent's commission
// split of the resulting fee (also basis points).
type FeeRule struct {
	PercentBps    int64
	FixedMinor    int64
	AgentSplitBps int64
}

// FeeBreakdown is the exact decomposition of a gross amount. The parts
// always reconstruct the gross: Net + PlatformShare + AgentShare == Gross.
type FeeBreakdown struct {
	Gross         int64
	Fee           int64
	Net           int64
	PlatformShare int64
	AgentShare    int64
}

// CalculateFee derives the fee decomposition for a gross minor-unit amount.
// The percentage component rounds half-up at the currency's minor unit; the
// agent share truncates toward zero so any split remainder is assigned to
// the platform.
func CalculateFee(gross int64, rule FeeRule) FeeBreakdown {
	fee := PercentBps(gross, rule.PercentBps) + rule.FixedMinor
	if fee > gross {
		fee = gross
	}
	agentShare := fee * rule.AgentSplitBps / 10000
	return FeeBreakdown{
		Gross:         gross,
		Fee:           fee,
		Net:           gross - fee,
		PlatformShare: fee - agentShare,
		AgentShare:    agentShare,
	}
}

// TransactionLimits are the configured per-currency amount bounds and the
// rolling per-user totals, all in minor units. A zero value means the bound
// is not enforced.
type TransactionLimits struct {
	MinAmount    int64
	MaxAmount    int64
	DailyLimit   int64
	WeeklyLimit  int64
	MonthlyLimit int64
}

// FeeSchedule is the full configured schedule consumed by the ledger engine
// and the settlement workflow.
type FeeSchedule struct {
	Rules  map[TransactionKind]map[Currency]FeeRule
	Limits map[Currency]TransactionLimits

	// Settlement commissions applied to an agent's collected cash.
	SettlementPlatformBps int64
	SettlementAgentBps    int64

	// Default per-currency credit limit for agents without an assigned one.
	DefaultAgentCreditLimit map[Currency]int64
}

// RuleFor returns the fee rule for a kind/currency pair; absent entries are
// fee-free.
func (s FeeSchedule) RuleFor(kind TransactionKind, currency Currency) FeeRule {
	if byCurrency, ok := s.Rules[kind]; ok {
		if rule, ok := byCurrency[currency]; ok {
			return rule
		}
	}
	return FeeRule{}
}

// LimitsFor returns the configured limits for a currency.
func (s FeeSchedule) LimitsFor(currency Currency) TransactionLimits {
	return s.Limits[currency]
}
