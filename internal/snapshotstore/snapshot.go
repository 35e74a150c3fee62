// Package snapshotstore serializes and restores the engine's full state —
// every symbol's resting orders (in FIFO order), pending stop orders, and
// id counters — to a single self-describing, versioned document (§4.6,
// §6). Handles are ksuid strings, following the identifier convention the
// pack uses for aggregate and event ids (e.g.
// internal/architecture/cqrs/aggregate.BaseAggregate).
package snapshotstore

import (
	"time"

	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
)

// Conversion between model.Order and OrderRecord lives in the
// matchingengine package (toExportRecord/fromExportRecord) since this
// package only defines the wire shape, not the translation — keeps
// snapshotstore free of any dependency on how the engine builds an Order.

// Version is the snapshot document schema version. A Store refuses to load
// a document whose Version it does not recognize, so that format changes
// are explicit rather than silently misinterpreted.
const Version = 1

// OrderRecord is one order as persisted, either resting in a book or
// sitting in a symbol's pending stop list.
type OrderRecord struct {
	OrderID           string
	Symbol            string
	OrderType         model.OrderType
	Side              model.OrderSide
	Quantity          decimal.Decimal
	Price             decimal.Decimal
	HasPrice          bool
	StopPrice         decimal.Decimal
	HasStopPrice      bool
	Timestamp         time.Time
	RemainingQuantity decimal.Decimal
	Status            model.OrderStatus
	IsTriggered       bool
}

// SymbolState is one symbol's full book-and-pending-stop state (§4.6).
// Bids and Asks are stored in arrival order within each price level, best
// price first, so replay through OrderBook.AddOrder reproduces identical
// FIFO queues.
type SymbolState struct {
	Symbol       string
	Bids         []OrderRecord
	Asks         []OrderRecord
	PendingStops []OrderRecord
}

// Document is the full, self-describing persisted engine state.
type Document struct {
	Version      int
	TakenAt      time.Time
	OrderCounter uint64
	TradeCounter uint64
	Symbols      []SymbolState
}
