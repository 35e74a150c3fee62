package matchingengine

import (
	"github.com/lattice-exchange/matchingengine/internal/book"
	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
	tserrors "github.com/lattice-exchange/matchingengine/pkg/errors"
)

// processOrder is the entry point for one admitted command: validate, admit,
// match or rest, then drain any stop orders the resulting trade(s) trigger
// (§4.4). It runs entirely inside the engine's single goroutine.
func (e *Engine) processOrder(order *model.Order) (*model.Order, []model.Trade, error) {
	if err := validateOrder(order); err != nil {
		order.Status = model.OrderStatusRejected
		return order, nil, err
	}

	e.admitOrder(order)

	if order.OrderType.IsStop() {
		e.pendingStops[order.Symbol] = append(e.pendingStops[order.Symbol], order)
		order.Status = model.OrderStatusPending
		return order, nil, nil
	}

	trades, err := e.matchAndSettle(order)
	if err != nil {
		return order, nil, err
	}

	e.drainStopTriggers(order.Symbol)
	return order, trades, nil
}

func (e *Engine) admitOrder(order *model.Order) {
	if order.OrderID == "" {
		order.OrderID = e.ids.Next()
	}
	order.Timestamp = e.now()
	order.RemainingQuantity = order.Quantity
	order.Status = model.OrderStatusNew
	order.CorrelationID = model.NewCorrelationID()
}

// matchAndSettle matches order against its symbol's book, applies the
// resting/no-resting rule for its type, and publishes any resulting trades
// and book-state updates. Used both for top-level admitted orders and for
// stop orders converted by drainStopTriggers.
func (e *Engine) matchAndSettle(order *model.Order) ([]model.Trade, error) {
	ob := e.bookFor(order.Symbol)

	if order.OrderType == model.OrderTypeFOK {
		need := order.RemainingQuantity
		available := ob.FillableQuantity(order.Side, order.HasPrice, order.Price, need)
		if available.LessThan(need) {
			order.Status = model.OrderStatusRejected
			return nil, tserrors.New(tserrors.ErrFOKInsufficientLiquidity,
				"insufficient resting liquidity to fill order "+order.OrderID)
		}
	}

	trades := e.matchAgainstBook(ob, order)

	rested := false
	switch order.OrderType {
	case model.OrderTypeLimit, model.OrderTypeStopLimit, model.OrderTypeTakeProfit:
		if order.RemainingQuantity.IsPositive() {
			ob.AddOrder(order)
			rested = true
			if order.RemainingQuantity.Equal(order.Quantity) {
				order.Status = model.OrderStatusNew
			} else {
				order.Status = model.OrderStatusPartial
			}
		} else {
			order.Status = model.OrderStatusFilled
		}
	default:
		// market, ioc, fok, stop_loss: never rest (§4.4).
		switch {
		case order.RemainingQuantity.IsZero():
			order.Status = model.OrderStatusFilled
		case order.RemainingQuantity.Equal(order.Quantity):
			order.Status = model.OrderStatusCancelled
		default:
			order.Status = model.OrderStatusPartial
		}
	}

	if ob.IsCrossed() {
		tserrors.PanicInvariant("crossed-book", ob.Symbol, "best bid >= best ask after matching "+order.OrderID)
	}

	for _, t := range trades {
		e.emitTrade(t)
	}
	if len(trades) > 0 || rested {
		e.publishBookState(ob)
	}

	return trades, nil
}

// matchAgainstBook repeatedly crosses order against the best resting price
// on the opposite side, honoring order's limit price if it has one, until
// order is filled, the book is exhausted on that side, or the next best
// price would be a trade-through (§4.3, §4.4). Resting orders at a better
// or equal price are always consumed before a worse one, by construction of
// the price-sorted book, so trade-through is structurally impossible here.
func (e *Engine) matchAgainstBook(ob *book.OrderBook, incoming *model.Order) []model.Trade {
	var trades []model.Trade

	restingSide := model.OrderSideSell
	if incoming.Side == model.OrderSideSell {
		restingSide = model.OrderSideBuy
	}

	for incoming.RemainingQuantity.IsPositive() {
		restingOrder := ob.FrontOrder(restingSide)
		if restingOrder == nil {
			break
		}

		bestPrice, _ := ob.BestPrice(restingSide)
		if incoming.HasPrice {
			if incoming.Side == model.OrderSideBuy && bestPrice.GreaterThan(incoming.Price) {
				break
			}
			if incoming.Side == model.OrderSideSell && bestPrice.LessThan(incoming.Price) {
				break
			}
		}

		tradeQty := minDecimal(incoming.RemainingQuantity, restingOrder.RemainingQuantity)
		filled := ob.ApplyFill(restingOrder, tradeQty)
		incoming.RemainingQuantity = incoming.RemainingQuantity.Sub(tradeQty)

		if filled {
			restingOrder.Status = model.OrderStatusFilled
		} else {
			restingOrder.Status = model.OrderStatusPartial
		}

		trade := e.buildTrade(ob.Symbol, bestPrice, tradeQty, restingOrder, incoming)
		trades = append(trades, trade)
		e.lastTradePrice[ob.Symbol] = bestPrice
	}

	return trades
}

func (e *Engine) buildTrade(symbol string, price, qty decimal.Decimal, maker, taker *model.Order) model.Trade {
	t := model.Trade{
		TradeID:       e.tids.Next(),
		Symbol:        symbol,
		Price:         price,
		Quantity:      qty,
		Timestamp:     e.now(),
		MakerOrderID:  maker.OrderID,
		TakerOrderID:  taker.OrderID,
		AggressorSide: taker.Side,
		FeesEnabled:   e.fees.Enabled(),
	}
	if t.FeesEnabled {
		t.MakerFee, t.TakerFee = e.fees.Compute(price, qty)
		t.MakerFeeRate = e.fees.MakerRate()
		t.TakerFeeRate = e.fees.TakerRate()
	}
	return t
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
