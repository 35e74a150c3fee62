// Package matchingengine implements the synchronous, per-symbol matching
// core: admission, price-time-priority matching, stop-order triggering, and
// market-data/trade emission (§4, §5). A single worker goroutine owns every
// order book and processes commands off a bounded channel one at a time, so
// every mutation of every symbol's book is totally ordered without a shared
// lock (§5 option (a): "a dedicated single goroutine... reading from a
// bounded channel").
package matchingengine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lattice-exchange/matchingengine/internal/book"
	"github.com/lattice-exchange/matchingengine/internal/fees"
	"github.com/lattice-exchange/matchingengine/internal/metrics"
	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/internal/publish"
	"github.com/lattice-exchange/matchingengine/internal/snapshotstore"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
	tserrors "github.com/lattice-exchange/matchingengine/pkg/errors"
)

type commandKind int

const (
	cmdPlaceOrder commandKind = iota
	cmdCancelOrder
	cmdSnapshotSymbol
	cmdExportState
)

// command is a single admitted unit of work. respCh always receives exactly
// one result before the engine moves on to the next command (§5 "Ordering
// guarantees").
type command struct {
	kind    commandKind
	order   *model.Order
	orderID string
	symbol  string
	respCh  chan result
}

// result is the outcome handed back to the synchronous facade call that
// enqueued a command.
type result struct {
	order  *model.Order
	trades []model.Trade
	snap   model.OrderBookSnapshot
	doc    snapshotstore.Document
	err    error
}

// Engine owns every symbol's order book and pending-stop list, and is the
// only goroutine that ever mutates them (§5).
type Engine struct {
	cfg Config

	books          map[string]*book.OrderBook
	pendingStops   map[string][]*model.Order
	lastTradePrice map[string]decimal.Decimal

	ids  *idGenerator
	tids *idGenerator

	fees       *fees.Calculator
	marketData *publish.MarketDataPublisher
	trades     *publish.TradePublisher
	metrics    *metrics.EngineMetrics

	logger *zap.Logger

	commands chan command
	done     chan struct{}
}

// New constructs an Engine. Call Run in its own goroutine before issuing any
// command through the facade methods.
func New(cfg Config, marketData *publish.MarketDataPublisher, trades *publish.TradePublisher, engineMetrics *metrics.EngineMetrics, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:            cfg,
		books:          make(map[string]*book.OrderBook),
		pendingStops:   make(map[string][]*model.Order),
		lastTradePrice: make(map[string]decimal.Decimal),
		ids:            newIDGenerator("ORD"),
		tids:           newIDGenerator("TRD"),
		fees:           fees.NewCalculator(cfg.EnableFees, cfg.MakerFeeRate, cfg.TakerFeeRate),
		marketData:     marketData,
		trades:         trades,
		metrics:        engineMetrics,
		logger:         logger,
		commands:       make(chan command, cfg.CommandBufferSize),
		done:           make(chan struct{}),
	}
}

// Run drains the command channel until ctx is cancelled. It must run in
// exactly one goroutine for the lifetime of the engine.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-e.commands:
			e.dispatch(cmd)
		}
	}
}

// Stopped is closed once Run has returned.
func (e *Engine) Stopped() <-chan struct{} {
	return e.done
}

func (e *Engine) dispatch(cmd command) {
	switch cmd.kind {
	case cmdPlaceOrder:
		start := e.now()
		order, trades, err := e.processOrder(cmd.order)
		if e.metrics != nil {
			e.metrics.ProcessingLatency.WithLabelValues(cmd.order.Symbol).Observe(e.now().Sub(start).Seconds())
			e.metrics.OrdersProcessed.WithLabelValues(cmd.order.Symbol, string(cmd.order.OrderType)).Inc()
			e.metrics.TradesExecuted.WithLabelValues(cmd.order.Symbol).Add(float64(len(trades)))
			e.metrics.PendingStops.WithLabelValues(cmd.order.Symbol).Set(float64(len(e.pendingStops[cmd.order.Symbol])))
			if err != nil {
				e.metrics.OrdersRejected.WithLabelValues(cmd.order.Symbol, string(tserrors.GetErrorCode(err))).Inc()
			}
		}
		cmd.respCh <- result{order: order, trades: trades, err: err}
	case cmdCancelOrder:
		order, err := e.cancelOrder(cmd.symbol, cmd.orderID)
		cmd.respCh <- result{order: order, err: err}
	case cmdSnapshotSymbol:
		cmd.respCh <- result{snap: e.bookFor(cmd.symbol).GetSnapshot(e.cfg.DepthLevelsDefault)}
	case cmdExportState:
		cmd.respCh <- result{doc: e.ExportState()}
	}
}

func (e *Engine) bookFor(symbol string) *book.OrderBook {
	ob, ok := e.books[symbol]
	if !ok {
		ob = book.New(symbol)
		e.books[symbol] = ob
	}
	return ob
}

// submit enqueues cmd and blocks for its result, or returns ctx's error if
// the engine cannot accept the command before ctx is done.
func (e *Engine) submit(ctx context.Context, cmd command) (result, error) {
	cmd.respCh = make(chan result, 1)
	select {
	case e.commands <- cmd:
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case r := <-cmd.respCh:
		return r, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// ProcessOrder admits order, waits for it to be matched/rested/rejected by
// the engine's single goroutine, and returns the resulting order state and
// any trades it produced.
func (e *Engine) ProcessOrder(ctx context.Context, order *model.Order) (*model.Order, []model.Trade, error) {
	r, err := e.submit(ctx, command{kind: cmdPlaceOrder, order: order})
	if err != nil {
		return nil, nil, err
	}
	return r.order, r.trades, r.err
}

// ExportStateSync runs ExportState inside the engine goroutine and returns
// the resulting document, for use by the periodic snapshot scheduler.
func (e *Engine) ExportStateSync(ctx context.Context) (snapshotstore.Document, error) {
	r, err := e.submit(ctx, command{kind: cmdExportState})
	if err != nil {
		return snapshotstore.Document{}, err
	}
	return r.doc, nil
}

// CancelOrder removes a resting order from its book. A stop order that has
// not yet triggered is not resting in any book and is reported not found.
func (e *Engine) CancelOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	r, err := e.submit(ctx, command{kind: cmdCancelOrder, symbol: symbol, orderID: orderID})
	if err != nil {
		return nil, err
	}
	return r.order, r.err
}

// Snapshot returns a top-N depth snapshot for symbol, computed inside the
// engine goroutine so it reflects a consistent point in the command order.
func (e *Engine) Snapshot(ctx context.Context, symbol string) (model.OrderBookSnapshot, error) {
	r, err := e.submit(ctx, command{kind: cmdSnapshotSymbol, symbol: symbol})
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	return r.snap, nil
}

// cancelOrder only inspects the resting book, never the pending stop list —
// a stop order that has not yet triggered was never admitted to the book and
// is reported not found, matching source behavior.
func (e *Engine) cancelOrder(symbol, orderID string) (*model.Order, error) {
	ob := e.bookFor(symbol)
	if order, err := ob.RemoveOrder(orderID); err == nil {
		order.Status = model.OrderStatusCancelled
		e.publishBookState(ob)
		return order, nil
	}

	return nil, tserrors.New(tserrors.ErrOrderNotFound, fmt.Sprintf("order %s not found", orderID))
}

func (e *Engine) publishBookState(ob *book.OrderBook) {
	if e.marketData == nil {
		return
	}
	e.marketData.PublishBBO(ob.CalculateBBO())
	e.marketData.PublishDepth(ob.GetSnapshot(e.cfg.DepthLevelsDefault))
}

func (e *Engine) emitTrade(t model.Trade) {
	if e.trades != nil {
		e.trades.PublishTrade(t)
	}
}

func (e *Engine) now() time.Time {
	return time.Now().UTC()
}

// restoreCounters sets the order/trade id counters from a loaded snapshot so
// newly admitted orders never collide with replayed ones (§4.6).
func (e *Engine) restoreCounters(orderCounter, tradeCounter uint64) {
	e.ids.SetCounter(orderCounter)
	e.tids.SetCounter(tradeCounter)
}

// loadBook installs a fully reconstructed order book for symbol, replacing
// any existing one. Used only during snapshot restore, before Run starts
// accepting commands.
func (e *Engine) loadBook(symbol string, ob *book.OrderBook) {
	e.books[symbol] = ob
}

// loadPendingStops installs the pending stop list for symbol during restore.
func (e *Engine) loadPendingStops(symbol string, stops []*model.Order) {
	e.pendingStops[symbol] = stops
}

// symbols returns every symbol with a book or a pending stop, for snapshotting.
func (e *Engine) symbols() []string {
	seen := make(map[string]struct{})
	for s := range e.books {
		seen[s] = struct{}{}
	}
	for s := range e.pendingStops {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	return out
}
