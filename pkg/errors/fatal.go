package errors

import "fmt"

// FatalInvariantError marks a matching-engine invariant violation: a crossed
// book, a negative price-level quantity, or an order-index/level desync.
// These indicate a bug in the matching algorithm itself, not a bad input,
// so they are never returned as a regular error — they panic via PanicInvariant so
// they cannot be swallowed by ordinary *TradSysError handling (§7).
type FatalInvariantError struct {
	Invariant string
	Symbol    string
	Detail    string
}

func (e *FatalInvariantError) Error() string {
	return fmt.Sprintf("fatal invariant violated [%s] symbol=%s: %s", e.Invariant, e.Symbol, e.Detail)
}

// PanicInvariant panics with a FatalInvariantError. Callers in the matching
// path use this instead of returning an error for the handful of conditions
// that must never occur if the matching algorithm is correct.
func PanicInvariant(invariant, symbol, detail string) {
	panic(&FatalInvariantError{Invariant: invariant, Symbol: symbol, Detail: detail})
}
