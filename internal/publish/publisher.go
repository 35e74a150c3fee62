package publish

import (
	"go.uber.org/zap"

	"github.com/lattice-exchange/matchingengine/internal/model"
)

// MarketDataPublisher publishes BBO and depth events. The engine calls this
// synchronously from process_order; the publisher copies the event and
// hands it to the registry (§4.5).
type MarketDataPublisher struct {
	registry *Registry
	logger   *zap.Logger
}

// NewMarketDataPublisher constructs a MarketDataPublisher over registry.
func NewMarketDataPublisher(registry *Registry, logger *zap.Logger) *MarketDataPublisher {
	return &MarketDataPublisher{registry: registry, logger: logger}
}

// PublishBBO publishes a BBO update for its symbol.
func (p *MarketDataPublisher) PublishBBO(bbo model.BBO) {
	ev := NewBBOEvent(bbo)
	p.registry.Publish(StreamBBOAndDepth, bbo.Symbol, ev)
}

// PublishDepth publishes a full top-N depth snapshot for its symbol.
func (p *MarketDataPublisher) PublishDepth(snap model.OrderBookSnapshot) {
	ev := NewDepthEvent(snap)
	p.registry.Publish(StreamBBOAndDepth, snap.Symbol, ev)
}

// TradePublisher publishes trade executions.
type TradePublisher struct {
	registry *Registry
	logger   *zap.Logger
}

// NewTradePublisher constructs a TradePublisher over registry.
func NewTradePublisher(registry *Registry, logger *zap.Logger) *TradePublisher {
	return &TradePublisher{registry: registry, logger: logger}
}

// PublishTrade publishes a single trade for its symbol.
func (p *TradePublisher) PublishTrade(trade model.Trade) {
	ev := NewTradeEvent(trade)
	p.registry.Publish(StreamTrades, trade.Symbol, ev)
	if sc := p.registry.SubscriberCount(StreamTrades, trade.Symbol); sc == 0 {
		p.logger.Debug("trade published with no subscribers",
			zap.String("trade_id", trade.TradeID), zap.String("symbol", trade.Symbol))
	}
}
