// Package decimal fixes the exact fixed-point arithmetic policy used
// throughout the matching engine on top of shopspring/decimal: a single
// rounding mode and a single fee quantization scale, chosen once so every
// package that touches money agrees on the same behavior.
package decimal

import (
	"github.com/shopspring/decimal"
)

// Decimal is the exact fixed-point type for every price, quantity and fee
// in the engine. No package outside this one may import math or use a
// binary floating point type for a value that represents money.
type Decimal = decimal.Decimal

// FeeScale is the number of fractional digits fees are quantized to (§4.1).
const FeeScale = 8

// Zero is the additive identity, re-exported for convenience.
var Zero = decimal.Zero

func init() {
	// Half-up is chosen once, module-wide, per §4.1 ("bankers' or half-up
	// consistently chosen once"). shopspring's default Div rounds half-away
	// from zero which matches half-up for the non-negative values this
	// engine deals in.
	decimal.DivisionPrecision = 24
}

// New constructs a Decimal from an integer mantissa and base-10 exponent,
// e.g. New(50100, 0) == 50100.
func New(value int64, exp int32) Decimal {
	return decimal.New(value, exp)
}

// Parse parses a decimal string. Matching input (prices, quantities) always
// arrives as strings or literals, never as float64.
func Parse(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// MustParse parses a decimal string, panicking on failure. Reserved for
// tests and compile-time constants.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// QuantizeFee rounds a fee amount to FeeScale fractional digits, half-up.
func QuantizeFee(d Decimal) Decimal {
	return d.Round(FeeScale)
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d Decimal) bool {
	return d.IsPositive()
}
