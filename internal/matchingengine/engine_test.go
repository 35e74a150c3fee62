package matchingengine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-exchange/matchingengine/internal/metrics"
	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/internal/publish"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
	pkgtesting "github.com/lattice-exchange/matchingengine/pkg/testing"
)

func newTestEngine(t *testing.T) (*Engine, context.CancelFunc) {
	t.Helper()
	logger, _ := pkgtesting.NewObservedLogger()
	registry := publish.NewRegistry(publish.DefaultSubscriberBuffer)
	marketData := publish.NewMarketDataPublisher(registry, logger)
	trades := publish.NewTradePublisher(registry, logger)
	promReg := prometheus.NewRegistry()
	em := metrics.NewEngineMetrics(promReg)

	cfg := DefaultConfig()
	e := New(cfg, marketData, trades, em, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	t.Cleanup(cancel)
	return e, cancel
}

func limitOrder(side model.OrderSide, price, qty string) *model.Order {
	return &model.Order{
		Symbol:    "BTC-USD",
		OrderType: model.OrderTypeLimit,
		Side:      side,
		Price:     decimal.MustParse(price),
		HasPrice:  true,
		Quantity:  decimal.MustParse(qty),
	}
}

func marketOrder(side model.OrderSide, qty string) *model.Order {
	return &model.Order{
		Symbol:    "BTC-USD",
		OrderType: model.OrderTypeMarket,
		Side:      side,
		Quantity:  decimal.MustParse(qty),
	}
}

func TestEngine_RestingLimitOrderThenMatch(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	resting, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideBuy, "100", "2"))
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, resting.Status)

	taker, trades, err := e.ProcessOrder(ctx, marketOrder(model.OrderSideSell, "2"))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(decimal.MustParse("100")), "trade must execute at the resting order's price")
	assert.Equal(t, resting.OrderID, trades[0].MakerOrderID)
	assert.Equal(t, taker.OrderID, trades[0].TakerOrderID)
	assert.Equal(t, model.OrderStatusFilled, taker.Status)
}

func TestEngine_TradeThroughPrevention_BestPriceFillsFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	worse, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "101", "5"))
	require.NoError(t, err)
	better, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "100", "5"))
	require.NoError(t, err)

	_, trades, err := e.ProcessOrder(ctx, marketOrder(model.OrderSideBuy, "5"))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, better.OrderID, trades[0].MakerOrderID, "the better-priced resting order must be consumed before the worse one")
	_ = worse
}

func TestEngine_IOC_PartialFillDoesNotRest(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "100", "1"))
	require.NoError(t, err)

	ioc := &model.Order{
		Symbol:    "BTC-USD",
		OrderType: model.OrderTypeIOC,
		Side:      model.OrderSideBuy,
		Price:     decimal.MustParse("100"),
		HasPrice:  true,
		Quantity:  decimal.MustParse("5"),
	}
	order, trades, err := e.ProcessOrder(ctx, ioc)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Quantity.Equal(decimal.MustParse("1")))
	assert.Equal(t, model.OrderStatusPartial, order.Status)

	_, err = e.CancelOrder(ctx, "BTC-USD", order.OrderID)
	assert.Error(t, err, "an IOC order must never rest in the book")
}

func TestEngine_FOK_RejectsWithoutMutatingBookOnInsufficientLiquidity(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	resting, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "100", "1"))
	require.NoError(t, err)

	fok := &model.Order{
		Symbol:    "BTC-USD",
		OrderType: model.OrderTypeFOK,
		Side:      model.OrderSideBuy,
		Price:     decimal.MustParse("100"),
		HasPrice:  true,
		Quantity:  decimal.MustParse("10"),
	}
	order, trades, err := e.ProcessOrder(ctx, fok)
	require.Error(t, err)
	assert.Nil(t, trades)
	assert.Equal(t, model.OrderStatusRejected, order.Status)

	// The resting sell order must be untouched by the rejected FOK attempt.
	snap, err := e.Snapshot(ctx, "BTC-USD")
	require.NoError(t, err)
	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Asks[0].Quantity.Equal(resting.Quantity))
}

func TestEngine_FOK_FillsCompletelyWhenLiquiditySufficient(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "100", "10"))
	require.NoError(t, err)

	fok := &model.Order{
		Symbol:    "BTC-USD",
		OrderType: model.OrderTypeFOK,
		Side:      model.OrderSideBuy,
		Price:     decimal.MustParse("100"),
		HasPrice:  true,
		Quantity:  decimal.MustParse("10"),
	}
	order, trades, err := e.ProcessOrder(ctx, fok)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, model.OrderStatusFilled, order.Status)
}

func TestEngine_StopLossTriggersOnTradePriceCrossing(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	stop := &model.Order{
		Symbol:    "BTC-USD",
		OrderType: model.OrderTypeStopLoss,
		Side:      model.OrderSideSell,
		Quantity:  decimal.MustParse("1"),
		StopPrice: decimal.MustParse("95"),
		HasStopPrice: true,
	}
	placed, _, err := e.ProcessOrder(ctx, stop)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, placed.Status)

	// Rest a buy at 94 so the stop, once triggered, can market-sell into it.
	_, _, err = e.ProcessOrder(ctx, limitOrder(model.OrderSideBuy, "94", "5"))
	require.NoError(t, err)

	// Trade the market down through the stop price to trigger it.
	_, _, err = e.ProcessOrder(ctx, marketOrder(model.OrderSideSell, "1"))
	require.NoError(t, err)

	// The stop triggered and market-sold its quantity into the 94 bid.
	assert.True(t, placed.IsTriggered)
	assert.Equal(t, model.OrderStatusFilled, placed.Status)

	// A stop order never rests in the book, so cancelling it by id fails.
	_, err = e.CancelOrder(ctx, "BTC-USD", placed.OrderID)
	assert.Error(t, err, "a triggered stop_loss order must not be resting in the book")
}

func TestEngine_TriggeredTakeProfitRestsAtStopPriceWhenPartiallyFilled(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "98", "5"))
	require.NoError(t, err)

	takeProfit := &model.Order{
		Symbol:       "BTC-USD",
		OrderType:    model.OrderTypeTakeProfit,
		Side:         model.OrderSideBuy,
		Quantity:     decimal.MustParse("5"),
		StopPrice:    decimal.MustParse("99"),
		HasStopPrice: true,
	}
	placed, _, err := e.ProcessOrder(ctx, takeProfit)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, placed.Status)

	// Trade the market down through the take-profit's stop price; this also
	// consumes part of the resting liquidity the triggered order will need.
	_, _, err = e.ProcessOrder(ctx, marketOrder(model.OrderSideBuy, "2"))
	require.NoError(t, err)

	snap, err := e.Snapshot(ctx, "BTC-USD")
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1, "the triggered take_profit must rest its unfilled remainder as a limit order")
	assert.True(t, snap.Bids[0].Price.Equal(decimal.MustParse("99")), "an unpriced take_profit defaults its resting price to stop_price")
	assert.True(t, snap.Bids[0].Quantity.Equal(decimal.MustParse("2")))
	assert.Equal(t, model.OrderStatusPartial, placed.Status)
}

func TestEngine_TriggeredStopLimitRestsWhenPartiallyFilled(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// Liquidity the triggered stop-limit sell will partially consume.
	_, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideBuy, "94", "2"))
	require.NoError(t, err)
	// A resting buy the stop's trigger trade will consume, setting the last
	// trade price to the stop price without touching the 94 level above.
	_, _, err = e.ProcessOrder(ctx, limitOrder(model.OrderSideBuy, "95", "1"))
	require.NoError(t, err)

	stopLimit := &model.Order{
		Symbol:       "BTC-USD",
		OrderType:    model.OrderTypeStopLimit,
		Side:         model.OrderSideSell,
		Quantity:     decimal.MustParse("5"),
		Price:        decimal.MustParse("94"),
		HasPrice:     true,
		StopPrice:    decimal.MustParse("95"),
		HasStopPrice: true,
	}
	placed, _, err := e.ProcessOrder(ctx, stopLimit)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, placed.Status)

	// Trade the market down through the stop price to trigger the sell stop.
	_, _, err = e.ProcessOrder(ctx, marketOrder(model.OrderSideSell, "1"))
	require.NoError(t, err)

	snap, err := e.Snapshot(ctx, "BTC-USD")
	require.NoError(t, err)
	require.Len(t, snap.Asks, 1, "the triggered stop_limit must rest its unfilled remainder as a limit order")
	assert.True(t, snap.Asks[0].Price.Equal(decimal.MustParse("94")))
	assert.True(t, snap.Asks[0].Quantity.Equal(decimal.MustParse("3")))
	assert.Equal(t, model.OrderStatusPartial, placed.Status)
}

func TestEngine_CancelPendingStopOrderFails(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	stop := &model.Order{
		Symbol:       "BTC-USD",
		OrderType:    model.OrderTypeStopLoss,
		Side:         model.OrderSideSell,
		Quantity:     decimal.MustParse("1"),
		StopPrice:    decimal.MustParse("95"),
		HasStopPrice: true,
	}
	placed, _, err := e.ProcessOrder(ctx, stop)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, placed.Status)

	_, err = e.CancelOrder(ctx, "BTC-USD", placed.OrderID)
	assert.Error(t, err, "a pending stop order has not been admitted to any book and must not be cancellable")
}

func TestEngine_CancelRestingOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	placed, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideBuy, "100", "1"))
	require.NoError(t, err)

	cancelled, err := e.CancelOrder(ctx, "BTC-USD", placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	_, err = e.CancelOrder(ctx, "BTC-USD", placed.OrderID)
	assert.Error(t, err)
}

func TestEngine_RejectsMalformedOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	bad := &model.Order{
		Symbol:    "notasymbol",
		OrderType: model.OrderTypeLimit,
		Side:      model.OrderSideBuy,
		Price:     decimal.MustParse("1"),
		HasPrice:  true,
		Quantity:  decimal.MustParse("1"),
	}
	order, trades, err := e.ProcessOrder(ctx, bad)
	require.Error(t, err)
	assert.Nil(t, trades)
	assert.Equal(t, model.OrderStatusRejected, order.Status)
}

func TestEngine_ExportImportStateRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideBuy, "100", "2"))
	require.NoError(t, err)
	_, _, err = e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "105", "3"))
	require.NoError(t, err)

	doc, err := e.ExportStateSync(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Symbols, 1)
	assert.Equal(t, "BTC-USD", doc.Symbols[0].Symbol)
	assert.Len(t, doc.Symbols[0].Bids, 1)
	assert.Len(t, doc.Symbols[0].Asks, 1)

	restored, _ := newTestEngineUnstarted(t)
	restored.ImportState(doc)

	snap := restored.bookFor("BTC-USD").GetSnapshot(10)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Bids[0].Price.Equal(decimal.MustParse("100")))
}

// newTestEngineUnstarted builds an Engine without starting Run, for
// ImportState's precondition that restore happens before the engine
// accepts commands.
func newTestEngineUnstarted(t *testing.T) (*Engine, *prometheus.Registry) {
	t.Helper()
	logger, _ := pkgtesting.NewObservedLogger()
	registry := publish.NewRegistry(publish.DefaultSubscriberBuffer)
	marketData := publish.NewMarketDataPublisher(registry, logger)
	trades := publish.NewTradePublisher(registry, logger)
	promReg := prometheus.NewRegistry()
	em := metrics.NewEngineMetrics(promReg)
	return New(DefaultConfig(), marketData, trades, em, logger), promReg
}

func TestEngine_ConservationOfQuantityAcrossPartialFills(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	resting, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideSell, "100", "10"))
	require.NoError(t, err)

	taker, trades, err := e.ProcessOrder(ctx, marketOrder(model.OrderSideBuy, "4"))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	// What the resting order lost must exactly equal what the taker gained
	// and what the trade recorded — no quantity created or destroyed.
	lost := resting.Quantity.Sub(resting.RemainingQuantity)
	assert.True(t, lost.Equal(trades[0].Quantity))
	assert.True(t, taker.FilledQuantity().Equal(trades[0].Quantity))
	assert.True(t, resting.RemainingQuantity.Equal(decimal.MustParse("6")))
}

func TestEngine_ProcessOrderTimesOutWhenContextCancelled(t *testing.T) {
	logger, _ := pkgtesting.NewObservedLogger()
	registry := publish.NewRegistry(publish.DefaultSubscriberBuffer)
	marketData := publish.NewMarketDataPublisher(registry, logger)
	trades := publish.NewTradePublisher(registry, logger)
	promReg := prometheus.NewRegistry()
	em := metrics.NewEngineMetrics(promReg)

	cfg := DefaultConfig()
	cfg.CommandBufferSize = 0
	e := New(cfg, marketData, trades, em, logger)
	// Run is never started, so submit must block until ctx is cancelled.

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := e.ProcessOrder(ctx, limitOrder(model.OrderSideBuy, "100", "1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
