// Package book implements the per-symbol order book: two price-sorted
// containers (bids descending, asks ascending) plus an O(1) order-id index,
// per spec §3/§4.3. The sorted containers are tidwall/btree.BTreeG, chosen
// over an unsorted map because the matching algorithm needs best-price
// access and ordered depth traversal, not just point lookups (Design
// Notes: "a hash map of prices plus a separate heap... an unsorted
// dictionary is not [acceptable]").
package book

import (
	"fmt"

	"github.com/tidwall/btree"

	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
	tserrors "github.com/lattice-exchange/matchingengine/pkg/errors"
)

type indexEntry struct {
	node  *node
	level *level
	side  model.OrderSide
}

// OrderBook is the dual-indexed book for one symbol (§3).
type OrderBook struct {
	Symbol string

	bids *btree.BTreeG[*level]
	asks *btree.BTreeG[*level]

	orderIndex map[string]*indexEntry
}

// New constructs an empty order book for symbol.
func New(symbol string) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *level) bool {
		// Bids sort with the highest price first.
		return a.price.GreaterThan(b.price)
	})
	asks := btree.NewBTreeG(func(a, b *level) bool {
		// Asks sort with the lowest price first.
		return a.price.LessThan(b.price)
	})
	return &OrderBook{
		Symbol:     symbol,
		bids:       bids,
		asks:       asks,
		orderIndex: make(map[string]*indexEntry),
	}
}

func (ob *OrderBook) sideTree(side model.OrderSide) *btree.BTreeG[*level] {
	if side == model.OrderSideBuy {
		return ob.bids
	}
	return ob.asks
}

// AddOrder appends o to the tail of its price level, creating the level if
// necessary, and records it in the order index (§4.3).
func (ob *OrderBook) AddOrder(o *model.Order) {
	tree := ob.sideTree(o.Side)

	lvl, found := tree.Get(&level{price: o.Price})
	if !found {
		lvl = newLevel(o.Price)
		tree.Set(lvl)
	}

	n := lvl.addOrder(o)
	ob.orderIndex[o.OrderID] = &indexEntry{node: n, level: lvl, side: o.Side}
}

// RemoveOrder removes an order by id, deleting its price level if it
// becomes empty. Returns tserrors.ErrOrderNotFound if the id is unknown.
func (ob *OrderBook) RemoveOrder(orderID string) (*model.Order, error) {
	entry, ok := ob.orderIndex[orderID]
	if !ok {
		return nil, tserrors.New(tserrors.ErrOrderNotFound, fmt.Sprintf("order %s not found", orderID))
	}

	order := entry.node.order
	entry.level.removeNode(entry.node)
	delete(ob.orderIndex, orderID)

	if entry.level.isEmpty() {
		tree := ob.sideTree(entry.side)
		tree.Delete(entry.level)
	}

	return order, nil
}

// removeIfEmpty deletes lvl from its side's price map if it has no
// resting orders left. ApplyFill invokes this after reducing an order's
// remaining quantity to zero, instead of going through RemoveOrder.
func (ob *OrderBook) removeIfEmpty(side model.OrderSide, lvl *level) {
	if lvl.isEmpty() {
		ob.sideTree(side).Delete(lvl)
	}
}

// bestLevel returns the best (price-priority) level on side, or nil.
func (ob *OrderBook) bestLevel(side model.OrderSide) *level {
	lvl, ok := ob.sideTree(side).Min()
	if !ok {
		return nil
	}
	return lvl
}

// BestPrice returns the best price and whether one exists, on side.
func (ob *OrderBook) BestPrice(side model.OrderSide) (decimal.Decimal, bool) {
	lvl := ob.bestLevel(side)
	if lvl == nil {
		return decimal.Zero, false
	}
	return lvl.price, true
}

// FrontOrder returns the oldest order resting at the best price on side, or nil.
func (ob *OrderBook) FrontOrder(side model.OrderSide) *model.Order {
	lvl := ob.bestLevel(side)
	if lvl == nil {
		return nil
	}
	n := lvl.front()
	if n == nil {
		return nil
	}
	return n.order
}

// ApplyFill reduces order's remaining quantity by qty, updates the owning
// level's aggregate, and — if the order is now fully filled — removes it
// from the book (index and queue). Returns whether the order was removed.
func (ob *OrderBook) ApplyFill(order *model.Order, qty decimal.Decimal) bool {
	entry, ok := ob.orderIndex[order.OrderID]
	if !ok {
		tserrors.PanicInvariant("order-index-desync", ob.Symbol, "ApplyFill on order not present in index: "+order.OrderID)
	}

	order.RemainingQuantity = order.RemainingQuantity.Sub(qty)
	entry.level.adjust(qty.Neg())

	if order.RemainingQuantity.IsNegative() {
		tserrors.PanicInvariant("negative-remaining-quantity", ob.Symbol, order.OrderID)
	}

	if order.RemainingQuantity.IsZero() {
		entry.level.removeNode(entry.node)
		delete(ob.orderIndex, order.OrderID)
		ob.removeIfEmpty(entry.side, entry.level)
		return true
	}
	return false
}

// FillableQuantity walks the resting side that an incoming order of
// incomingSide would match against (bids for an incoming sell, asks for an
// incoming buy) from the best price inward, summing resting quantity at
// levels the incoming limit price (if any) can reach, and stops as soon as
// the running total reaches need or the remaining levels fall outside the
// limit. It performs no mutation, which is what FOK's phase-1 liquidity
// check requires (§4.4, Design Notes "evaluate fillability first, then
// execute, or reject without touching the book").
func (ob *OrderBook) FillableQuantity(incomingSide model.OrderSide, hasLimit bool, limitPrice, need decimal.Decimal) decimal.Decimal {
	restingSide := model.OrderSideSell
	if incomingSide == model.OrderSideSell {
		restingSide = model.OrderSideBuy
	}

	total := decimal.Zero
	ob.sideTree(restingSide).Scan(func(lvl *level) bool {
		if hasLimit {
			if incomingSide == model.OrderSideBuy && lvl.price.GreaterThan(limitPrice) {
				return false
			}
			if incomingSide == model.OrderSideSell && lvl.price.LessThan(limitPrice) {
				return false
			}
		}
		total = total.Add(lvl.totalQuantity)
		return total.LessThan(need)
	})
	return total
}

// Get returns the resting order for orderID, if present.
func (ob *OrderBook) Get(orderID string) (*model.Order, bool) {
	entry, ok := ob.orderIndex[orderID]
	if !ok {
		return nil, false
	}
	return entry.node.order, true
}

// Len returns the number of resting orders across both sides.
func (ob *OrderBook) Len() int {
	return len(ob.orderIndex)
}

// IsCrossed reports whether the best bid is >= the best ask (§3 invariant
// (b)); a true result is always a matching bug, never a valid book state.
func (ob *OrderBook) IsCrossed() bool {
	bestBid, hasBid := ob.BestPrice(model.OrderSideBuy)
	bestAsk, hasAsk := ob.BestPrice(model.OrderSideSell)
	if !hasBid || !hasAsk {
		return false
	}
	return bestBid.GreaterThanOrEqual(bestAsk)
}

// CheckInvariants panics via pkg/errors.PanicInvariant if the book violates
// any of the testable properties in spec §8 items 1-4. It scans every
// level, so only tests call it; the engine itself checks IsCrossed after
// each match.
func (ob *OrderBook) CheckInvariants() {
	if ob.IsCrossed() {
		tserrors.PanicInvariant("crossed-book", ob.Symbol, "best bid >= best ask")
	}

	seen := make(map[string]struct{}, len(ob.orderIndex))
	checkSide := func(side model.OrderSide) {
		ob.sideTree(side).Scan(func(lvl *level) bool {
			sum := decimal.Zero
			for n := lvl.head; n != nil; n = n.next {
				sum = sum.Add(n.order.RemainingQuantity)
				seen[n.order.OrderID] = struct{}{}
				if n.order.RemainingQuantity.IsNegative() || n.order.RemainingQuantity.GreaterThan(n.order.Quantity) {
					tserrors.PanicInvariant("remaining-quantity-out-of-range", ob.Symbol, n.order.OrderID)
				}
			}
			if !sum.Equal(lvl.totalQuantity) {
				tserrors.PanicInvariant("level-total-mismatch", ob.Symbol, lvl.price.String())
			}
			if lvl.totalQuantity.IsNegative() {
				tserrors.PanicInvariant("negative-level-total", ob.Symbol, lvl.price.String())
			}
			return true
		})
	}
	checkSide(model.OrderSideBuy)
	checkSide(model.OrderSideSell)

	if len(seen) != len(ob.orderIndex) {
		tserrors.PanicInvariant("order-index-mismatch", ob.Symbol, "index membership differs from level contents")
	}
}
