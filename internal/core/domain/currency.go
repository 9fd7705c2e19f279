package domain

import "fmt"

// Currency is one of the platform's supported currencies. All amounts are
// carried as int64 minor units (cents for USD, pounds for SYP) so that
// balance arithmetic is exact.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencySYP Currency = "SYP"
)

// Currencies lists every supported currency.
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencySYP}
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencySYP:
		return true
	}
	return false
}

// Decimals returns the number of decimal places of the currency's major unit.
func (c Currency) Decimals() int {
	if c == CurrencyUSD {
		return 2
	}
	return 0
}

// minorPerMajor returns the number of minor units in one major unit.
func (c Currency) minorPerMajor() int64 {
	n := int64(1)
	for i := 0; i < c.Decimals(); i++ {
		n *= 10
	}
	return n
}

// Epsilon is the reconciliation tolerance in minor units: one cent of
// rounding slack for USD, none for integer SYP.
func (c Currency) Epsilon() int64 {
	if c.Decimals() > 0 {
		return 1
	}
	return 0
}

// FormatMinor renders a minor-unit amount as a human-readable string,
// e.g. 9900 USD minor units -> "99.00 USD".
func (c Currency) FormatMinor(v int64) string {
	unit := c.minorPerMajor()
	if unit == 1 {
		return fmt.Sprintf("%d %s", v, c)
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%0*d %s", sign, v/unit, c.Decimals(), v%unit, c)
}

// PercentBps computes amount * bps / 10000 rounded half-up at the minor
// unit. Both arguments must be non-negative.
func PercentBps(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}
