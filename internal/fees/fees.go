// Package fees computes maker/taker trade fees at configured rates, with
// fixed rounding, per spec §4.4 ("Fee calculation").
package fees

import "github.com/lattice-exchange/matchingengine/pkg/decimal"

// Calculator computes maker and taker fees for a trade at fixed rates.
type Calculator struct {
	enabled    bool
	makerRate  decimal.Decimal
	takerRate  decimal.Decimal
}

// NewCalculator constructs a fee Calculator. When enabled is false,
// Compute always returns zero fees and Enabled reports false so callers
// can omit the fee fields from published trades (§6).
func NewCalculator(enabled bool, makerRate, takerRate decimal.Decimal) *Calculator {
	return &Calculator{enabled: enabled, makerRate: makerRate, takerRate: takerRate}
}

// Enabled reports whether fee calculation is turned on.
func (c *Calculator) Enabled() bool {
	return c != nil && c.enabled
}

// Compute returns maker_fee, taker_fee = price*quantity*rate, each
// quantized to 10^-8 (§4.1, §4.4).
func (c *Calculator) Compute(price, quantity decimal.Decimal) (makerFee, takerFee decimal.Decimal) {
	if !c.Enabled() {
		return decimal.Zero, decimal.Zero
	}
	notional := price.Mul(quantity)
	makerFee = decimal.QuantizeFee(notional.Mul(c.makerRate))
	takerFee = decimal.QuantizeFee(notional.Mul(c.takerRate))
	return makerFee, takerFee
}

// MakerRate returns the configured maker fee rate.
func (c *Calculator) MakerRate() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return c.makerRate
}

// TakerRate returns the configured taker fee rate.
func (c *Calculator) TakerRate() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return c.takerRate
}
