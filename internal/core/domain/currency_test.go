package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency_Valid(t *testing.T) {
	assert.True(t, CurrencyUSD.Valid())
	assert.True(t, CurrencySYP.Valid())
	assert.False(t, Currency("EUR").Valid())
	assert.False(t, Currency("").Valid())
}

func TestCurrency_Decimals(t *testing.T) {
	assert.Equal(t, 2, CurrencyUSD.Decimals())
	assert.Equal(t, 0, CurrencySYP.Decimals())
}

func TestCurrency_Epsilon(t *testing.T) {
	assert.Equal(t, int64(1), CurrencyUSD.Epsilon())
	assert.Equal(t, int64(0), CurrencySYP.Epsilon())
}

func TestCurrency_FormatMinor(t *testing.T) {
	assert.Equal(t, "99.00 USD", CurrencyUSD.FormatMinor(9900))
	assert.Equal(t, "0.25 USD", CurrencyUSD.FormatMinor(25))
	assert.Equal(t, "-1.05 USD", CurrencyUSD.FormatMinor(-105))
	assert.Equal(t, "1500 SYP", CurrencySYP.FormatMinor(1500))
	assert.Equal(t, "-300 SYP", CurrencySYP.FormatMinor(-300))
}

func TestPercentBps_RoundHalfUp(t *testing.T) {
	// 1% of 100.00 USD = 1.00
	assert.Equal(t, int64(100), PercentBps(10000, 100))
	// 0.5% of 50.00 USD = 0.25
	assert.Equal(t, int64(25), PercentBps(5000, 50))
	// exact half rounds up: 0.5% of 1.00 = 0.005 -> 0.01
	assert.Equal(t, int64(1), PercentBps(100, 50))
	// just below half rounds down: 0.49% of 1.00 = 0.0049 -> 0.00
	assert.Equal(t, int64(0), PercentBps(100, 49))
	assert.Equal(t, int64(0), PercentBps(0, 100))
}
