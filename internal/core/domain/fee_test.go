package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFee_PlatformOnly(t *testing.T) {
	// Deposit 100.00 USD with a 1% platform-only fee.
	b := CalculateFee(10000, FeeRule{PercentBps: 100})

	assert.Equal(t, int64(10000), b.Gross)
	assert.Equal(t, int64(100), b.Fee)
	assert.Equal(t, int64(9900), b.Net)
	assert.Equal(t, int64(100), b.PlatformShare)
	assert.Equal(t, int64(0), b.AgentShare)
}

func TestCalculateFee_SplitWithRemainderToPlatform(t *testing.T) {
	// Fee of 25 split 50/50 leaves an odd cent on the platform side.
	b := CalculateFee(5000, FeeRule{PercentBps: 50, AgentSplitBps: 5000})

	assert.Equal(t, int64(25), b.Fee)
	assert.Equal(t, int64(12), b.AgentShare)
	assert.Equal(t, int64(13), b.PlatformShare)
}

func TestCalculateFee_FixedComponent(t *testing.T) {
	b := CalculateFee(10000, FeeRule{PercentBps: 100, FixedMinor: 50})

	assert.Equal(t, int64(150), b.Fee)
	assert.Equal(t, int64(9850), b.Net)
}

func TestCalculateFee_FeeCappedAtGross(t *testing.T) {
	b := CalculateFee(10, FeeRule{FixedMinor: 500})

	assert.Equal(t, int64(10), b.Fee)
	assert.Equal(t, int64(0), b.Net)
}

func TestCalculateFee_ZeroRuleIsFeeFree(t *testing.T) {
	b := CalculateFee(7500, FeeRule{})

	assert.Equal(t, int64(0), b.Fee)
	assert.Equal(t, int64(7500), b.Net)
}

// The decomposition must reconstruct the gross amount exactly for every
// input: no rounding leakage under any percentage, fixed fee, or split.
func TestCalculateFee_ReconstructionProperty(t *testing.T) {
	amounts := []int64{1, 3, 99, 100, 101, 999, 5000, 9999, 10000, 123457, 99999999}
	bps := []int64{0, 1, 49, 50, 100, 250, 333, 1000, 9999}
	fixed := []int64{0, 1, 25, 100}
	splits := []int64{0, 1000, 3333, 5000, 6667, 10000}

	for _, amount := range amounts {
		for _, p := range bps {
			for _, f := range fixed {
				for _, s := range splits {
					b := CalculateFee(amount, FeeRule{PercentBps: p, FixedMinor: f, AgentSplitBps: s})
					assert.Equal(t, amount, b.Net+b.PlatformShare+b.AgentShare,
						"amount=%d bps=%d fixed=%d split=%d", amount, p, f, s)
					assert.GreaterOrEqual(t, b.Net, int64(0))
					assert.GreaterOrEqual(t, b.AgentShare, int64(0))
					assert.GreaterOrEqual(t, b.PlatformShare, int64(0))
				}
			}
		}
	}
}

func TestFeeSchedule_RuleFor(t *testing.T) {
	s := FeeSchedule{
		Rules: map[TransactionKind]map[Currency]FeeRule{
			KindTransfer: {CurrencyUSD: {PercentBps: 50}},
		},
	}

	assert.Equal(t, int64(50), s.RuleFor(KindTransfer, CurrencyUSD).PercentBps)
	// Absent entries are fee-free.
	assert.Equal(t, FeeRule{}, s.RuleFor(KindTransfer, CurrencySYP))
	assert.Equal(t, FeeRule{}, s.RuleFor(KindDeposit, CurrencyUSD))
}
