package model

import (
	"time"

	"github.com/lattice-exchange/matchingengine/pkg/decimal"
)

// Trade is an immutable execution record (§3).
type Trade struct {
	TradeID       string
	Symbol        string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Timestamp     time.Time
	MakerOrderID  string
	TakerOrderID  string
	AggressorSide OrderSide

	FeesEnabled  bool
	MakerFee     decimal.Decimal
	TakerFee     decimal.Decimal
	MakerFeeRate decimal.Decimal
	TakerFeeRate decimal.Decimal
}

// BBO is a best-bid-and-offer snapshot at an instant (§3).
type BBO struct {
	Symbol      string
	Timestamp   time.Time
	BestBid     decimal.Decimal
	HasBid      bool
	BestBidQty  decimal.Decimal
	BestAsk     decimal.Decimal
	HasAsk      bool
	BestAskQty  decimal.Decimal
}

// DepthLevel is one aggregated price level in a depth snapshot.
type DepthLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// OrderBookSnapshot is a top-N depth snapshot (§3, §6).
type OrderBookSnapshot struct {
	Symbol    string
	Timestamp time.Time
	Bids      []DepthLevel
	Asks      []DepthLevel
}
