package publish

import (
	"time"

	"github.com/lattice-exchange/matchingengine/internal/model"
)

// StreamKind selects which event stream a subscriber receives (§4.5).
type StreamKind string

const (
	StreamBBOAndDepth StreamKind = "bbo_and_depth"
	StreamTrades      StreamKind = "trades"
)

// BBOEvent is the wire shape of a BBO update (§6).
type BBOEvent struct {
	Type             string    `json:"type"`
	Symbol           string    `json:"symbol"`
	BestBid          *string   `json:"best_bid"`
	BestBidQuantity  string    `json:"best_bid_quantity"`
	BestAsk          *string   `json:"best_ask"`
	BestAskQuantity  string    `json:"best_ask_quantity"`
	Timestamp        time.Time `json:"timestamp"`
}

// DepthEvent is the wire shape of a full top-N depth snapshot (§6). Despite
// the name "delta" in spec prose, these are full snapshots by design
// ("the design chooses simplicity over diff compactness", §4.5).
type DepthEvent struct {
	Type      string          `json:"type"`
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Bids      [][2]string     `json:"bids"`
	Asks      [][2]string     `json:"asks"`
}

// TradeEvent is the wire shape of a trade execution (§6).
type TradeEvent struct {
	TradeID       string  `json:"trade_id"`
	Symbol        string  `json:"symbol"`
	Price         string  `json:"price"`
	Quantity      string  `json:"quantity"`
	Timestamp     time.Time `json:"timestamp"`
	MakerOrderID  string  `json:"maker_order_id"`
	TakerOrderID  string  `json:"taker_order_id"`
	AggressorSide string  `json:"aggressor_side"`
	MakerFee      *string `json:"maker_fee,omitempty"`
	TakerFee      *string `json:"taker_fee,omitempty"`
	MakerFeeRate  *string `json:"maker_fee_rate,omitempty"`
	TakerFeeRate  *string `json:"taker_fee_rate,omitempty"`
}

func strPtr(d interface{ String() string }) *string {
	s := d.String()
	return &s
}

// NewBBOEvent converts a model.BBO into its wire shape.
func NewBBOEvent(b model.BBO) BBOEvent {
	ev := BBOEvent{
		Type:            "bbo",
		Symbol:          b.Symbol,
		BestBidQuantity: b.BestBidQty.String(),
		BestAskQuantity: b.BestAskQty.String(),
		Timestamp:       b.Timestamp,
	}
	if b.HasBid {
		ev.BestBid = strPtr(b.BestBid)
	} else {
		ev.BestBidQuantity = "0"
	}
	if b.HasAsk {
		ev.BestAsk = strPtr(b.BestAsk)
	} else {
		ev.BestAskQuantity = "0"
	}
	return ev
}

// NewDepthEvent converts a model.OrderBookSnapshot into its wire shape.
func NewDepthEvent(s model.OrderBookSnapshot) DepthEvent {
	ev := DepthEvent{
		Type:      "orderbook",
		Symbol:    s.Symbol,
		Timestamp: s.Timestamp,
		Bids:      make([][2]string, len(s.Bids)),
		Asks:      make([][2]string, len(s.Asks)),
	}
	for i, l := range s.Bids {
		ev.Bids[i] = [2]string{l.Price.String(), l.Quantity.String()}
	}
	for i, l := range s.Asks {
		ev.Asks[i] = [2]string{l.Price.String(), l.Quantity.String()}
	}
	return ev
}

// NewTradeEvent converts a model.Trade into its wire shape.
func NewTradeEvent(t model.Trade) TradeEvent {
	ev := TradeEvent{
		TradeID:       t.TradeID,
		Symbol:        t.Symbol,
		Price:         t.Price.String(),
		Quantity:      t.Quantity.String(),
		Timestamp:     t.Timestamp,
		MakerOrderID:  t.MakerOrderID,
		TakerOrderID:  t.TakerOrderID,
		AggressorSide: string(t.AggressorSide),
	}
	if t.FeesEnabled {
		ev.MakerFee = strPtr(t.MakerFee)
		ev.TakerFee = strPtr(t.TakerFee)
		ev.MakerFeeRate = strPtr(t.MakerFeeRate)
		ev.TakerFeeRate = strPtr(t.TakerFeeRate)
	}
	return ev
}
