package matchingengine

import (
	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
)

// drainStopTriggers repeatedly scans symbol's pending stop list against the
// latest trade price, converts and matches every order that triggers, and
// repeats until a full pass triggers nothing. A triggered order's own
// trade(s) can move the price enough to trigger another pending order, so a
// single pass is not sufficient; an explicit work queue (rather than having
// matchAndSettle call back into this function) keeps the trigger evaluation
// iterative instead of recursive (Design Notes, §4.4 "stop orders").
func (e *Engine) drainStopTriggers(symbol string) {
	for {
		triggered := e.extractTriggered(symbol)
		if len(triggered) == 0 {
			return
		}
		for _, o := range triggered {
			o.IsTriggered = true
			if o.OrderType == model.OrderTypeTakeProfit && !o.HasPrice {
				// A triggered take_profit with no explicit limit price rests
				// at its stop price (§4.4) — the Python source achieves this
				// by mutating order_type to LIMIT; defaulting Price here gets
				// the same can_rest_on_book outcome without renaming the type.
				o.Price = o.StopPrice
				o.HasPrice = true
			}
			if _, err := e.matchAndSettle(o); err != nil {
				o.Status = model.OrderStatusRejected
			}
		}
	}
}

// extractTriggered removes every pending stop order on symbol whose trigger
// condition is satisfied by the symbol's last trade price, and returns them
// in their original (arrival) order. Orders that do not trigger remain
// pending.
func (e *Engine) extractTriggered(symbol string) []*model.Order {
	price, ok := e.lastTradePrice[symbol]
	if !ok {
		return nil
	}

	stops := e.pendingStops[symbol]
	if len(stops) == 0 {
		return nil
	}

	var triggered, remaining []*model.Order
	for _, o := range stops {
		if shouldTrigger(o, price) {
			triggered = append(triggered, o)
		} else {
			remaining = append(remaining, o)
		}
	}
	e.pendingStops[symbol] = remaining
	return triggered
}

// shouldTrigger implements the trigger table (§3, §6): a stop_loss or the
// stop leg of a stop_limit fires when the market trades through the stop
// price moving away from the order's side (a protective sell stop below the
// market, or a protective buy stop above it); a take_profit fires on the
// opposite crossing.
func shouldTrigger(o *model.Order, lastPrice decimal.Decimal) bool {
	switch o.OrderType {
	case model.OrderTypeStopLoss, model.OrderTypeStopLimit:
		if o.Side == model.OrderSideSell {
			return lastPrice.LessThanOrEqual(o.StopPrice)
		}
		return lastPrice.GreaterThanOrEqual(o.StopPrice)
	case model.OrderTypeTakeProfit:
		if o.Side == model.OrderSideSell {
			return lastPrice.GreaterThanOrEqual(o.StopPrice)
		}
		return lastPrice.LessThanOrEqual(o.StopPrice)
	default:
		return false
	}
}
