package book

import (
	"time"

	"github.com/lattice-exchange/matchingengine/internal/model"
)

// CalculateBBO returns the current best-bid-and-offer (§4.3).
func (ob *OrderBook) CalculateBBO() model.BBO {
	bbo := model.BBO{Symbol: ob.Symbol, Timestamp: time.Now().UTC()}

	if lvl := ob.bestLevel(model.OrderSideBuy); lvl != nil {
		bbo.HasBid = true
		bbo.BestBid = lvl.price
		bbo.BestBidQty = lvl.totalQuantity
	}
	if lvl := ob.bestLevel(model.OrderSideSell); lvl != nil {
		bbo.HasAsk = true
		bbo.BestAsk = lvl.price
		bbo.BestAskQty = lvl.totalQuantity
	}
	return bbo
}

// getDepth returns up to n aggregated levels on side, best price first
// (§4.3). Each resting order already belongs to exactly one level, so the
// level's totalQuantity is already the aggregate for that price.
func (ob *OrderBook) getDepth(side model.OrderSide, n int) []model.DepthLevel {
	levels := make([]model.DepthLevel, 0, n)
	ob.sideTree(side).Scan(func(lvl *level) bool {
		if len(levels) >= n {
			return false
		}
		levels = append(levels, model.DepthLevel{Price: lvl.price, Quantity: lvl.totalQuantity})
		return true
	})
	return levels
}

// GetSnapshot returns a top-n depth snapshot of the book (§3, §6).
func (ob *OrderBook) GetSnapshot(n int) model.OrderBookSnapshot {
	return model.OrderBookSnapshot{
		Symbol:    ob.Symbol,
		Timestamp: time.Now().UTC(),
		Bids:      ob.getDepth(model.OrderSideBuy, n),
		Asks:      ob.getDepth(model.OrderSideSell, n),
	}
}

// RestingOrdersInArrivalOrder returns every resting order on side across all
// price levels, in admission order per level, best price first. Used by the
// snapshot store to serialize the book so replay preserves FIFO (§4.6).
func (ob *OrderBook) RestingOrdersInArrivalOrder(side model.OrderSide) []*model.Order {
	var out []*model.Order
	ob.sideTree(side).Scan(func(lvl *level) bool {
		for n := lvl.head; n != nil; n = n.next {
			out = append(out, n.order)
		}
		return true
	})
	return out
}
