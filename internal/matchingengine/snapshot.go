package matchingengine

import (
	"github.com/lattice-exchange/matchingengine/internal/book"
	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/internal/snapshotstore"
)

// ExportState builds a snapshotstore.Document describing every symbol's
// resting orders, pending stops and id counters (§4.6). Must be called from
// inside the engine goroutine (i.e. via a command) so it observes a
// consistent point in the command order.
func (e *Engine) ExportState() snapshotstore.Document {
	doc := snapshotstore.Document{
		Version:      snapshotstore.Version,
		TakenAt:      e.now(),
		OrderCounter: e.ids.Counter(),
		TradeCounter: e.tids.Counter(),
	}

	for _, symbol := range e.symbols() {
		state := snapshotstore.SymbolState{Symbol: symbol}

		if ob, ok := e.books[symbol]; ok {
			for _, o := range ob.RestingOrdersInArrivalOrder(model.OrderSideBuy) {
				state.Bids = append(state.Bids, toExportRecord(o))
			}
			for _, o := range ob.RestingOrdersInArrivalOrder(model.OrderSideSell) {
				state.Asks = append(state.Asks, toExportRecord(o))
			}
		}
		for _, o := range e.pendingStops[symbol] {
			state.PendingStops = append(state.PendingStops, toExportRecord(o))
		}

		doc.Symbols = append(doc.Symbols, state)
	}

	return doc
}

// ImportState replaces the engine's entire book and pending-stop state from
// doc. Must be called before Run starts accepting commands: it mutates
// engine maps directly, with none of the command-channel serialization that
// protects concurrent access once the engine is live (§4.6 "restore
// happens before the engine accepts new commands").
func (e *Engine) ImportState(doc snapshotstore.Document) {
	e.restoreCounters(doc.OrderCounter, doc.TradeCounter)

	for _, state := range doc.Symbols {
		ob := book.New(state.Symbol)
		for _, r := range state.Bids {
			ob.AddOrder(fromExportRecord(r))
		}
		for _, r := range state.Asks {
			ob.AddOrder(fromExportRecord(r))
		}
		e.loadBook(state.Symbol, ob)

		var stops []*model.Order
		for _, r := range state.PendingStops {
			stops = append(stops, fromExportRecord(r))
		}
		e.loadPendingStops(state.Symbol, stops)
	}
}

func toExportRecord(o *model.Order) snapshotstore.OrderRecord {
	return snapshotstore.OrderRecord{
		OrderID:           o.OrderID,
		Symbol:            o.Symbol,
		OrderType:         o.OrderType,
		Side:              o.Side,
		Quantity:          o.Quantity,
		Price:             o.Price,
		HasPrice:          o.HasPrice,
		StopPrice:         o.StopPrice,
		HasStopPrice:      o.HasStopPrice,
		Timestamp:         o.Timestamp,
		RemainingQuantity: o.RemainingQuantity,
		Status:            o.Status,
		IsTriggered:       o.IsTriggered,
	}
}

func fromExportRecord(r snapshotstore.OrderRecord) *model.Order {
	return &model.Order{
		OrderID:           r.OrderID,
		Symbol:            r.Symbol,
		OrderType:         r.OrderType,
		Side:              r.Side,
		Quantity:          r.Quantity,
		Price:             r.Price,
		HasPrice:          r.HasPrice,
		StopPrice:         r.StopPrice,
		HasStopPrice:      r.HasStopPrice,
		Timestamp:         r.Timestamp,
		RemainingQuantity: r.RemainingQuantity,
		Status:            r.Status,
		IsTriggered:       r.IsTriggered,
		CorrelationID:     model.NewCorrelationID(),
	}
}
