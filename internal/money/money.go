// Package money converts between processor minor units and decimal amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimal lists currencies the processor bills in whole units.
var zeroDecimal = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

func exponent(currency string) int32 {
	if _, ok := zeroDecimal[strings.ToLower(currency)]; ok {
		return 0
	}

	return 2
}

// FromMinor converts an amount expressed in minor units (cents) to a decimal.
func FromMinor(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -exponent(currency))
}

// ToMinor converts a decimal amount to minor units, rounding half away from zero.
func ToMinor(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(exponent(currency)).Round(0).IntPart()
}

// Equal compares two amounts to two decimal places.
func Equal(a, b decimal.Decimal) bool {
	return a.Round(2).Equal(b.Round(2))
}

// Format renders an amount with two decimals and the upper-cased currency code, e.g. "USD 25.00".
func Format(amount decimal.Decimal, currency string) string {
	return strings.ToUpper(currency) + " " + amount.StringFixed(2)
}
