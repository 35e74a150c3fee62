// Package matchingfx wires the matching engine, its publishers, its
// Prometheus metrics, and its snapshot store into an fx application,
// following the lifecycle-hook pattern of the order matching module this
// package is grounded on.
package matchingfx

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lattice-exchange/matchingengine/internal/matchingengine"
	"github.com/lattice-exchange/matchingengine/internal/metrics"
	"github.com/lattice-exchange/matchingengine/internal/publish"
	"github.com/lattice-exchange/matchingengine/internal/snapshotstore"
)

// Module provides every component the matching engine needs and registers
// its lifecycle hooks: start the command-processing goroutine on OnStart,
// cancel it and drain the periodic snapshot scheduler on OnStop.
var Module = fx.Options(
	metrics.Module,
	fx.Provide(matchingengine.DefaultConfig),
	fx.Provide(NewRegistry),
	fx.Provide(publish.NewMarketDataPublisher),
	fx.Provide(publish.NewTradePublisher),
	fx.Provide(NewEngine),
	fx.Invoke(RegisterLifecycle),
)

// NewRegistry constructs the market-data/trade publisher registry with the
// package's default per-subscriber buffer size, capped per the engine
// configuration's subscriber limit.
func NewRegistry(cfg matchingengine.Config) *publish.Registry {
	r := publish.NewRegistry(publish.DefaultSubscriberBuffer)
	r.SetMaxSubscribersPerSymbol(cfg.MaxSubscribersPerSymbol)
	return r
}

// NewEngine constructs the matching engine with every collaborator fx has
// already built.
func NewEngine(
	cfg matchingengine.Config,
	marketData *publish.MarketDataPublisher,
	trades *publish.TradePublisher,
	engineMetrics *metrics.EngineMetrics,
	logger *zap.Logger,
) *matchingengine.Engine {
	return matchingengine.New(cfg, marketData, trades, engineMetrics, logger)
}

// RegisterLifecycle starts the engine's command-processing goroutine on
// application start and, if persistence is enabled, a periodic snapshot
// scheduler; when the application stops, both are cancelled through one
// shared context and OnStop waits for the engine, then the scheduler, to
// return (§4.6, §5).
func RegisterLifecycle(
	lifecycle fx.Lifecycle,
	engine *matchingengine.Engine,
	cfg matchingengine.Config,
	registry *prometheus.Registry,
	logger *zap.Logger,
) error {
	var store *snapshotstore.Store
	if cfg.EnablePersistence {
		var err error
		store, err = snapshotstore.NewStore("./data/snapshots", logger)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	schedulerDone := make(chan struct{})

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting matching engine")
			go engine.Run(ctx)

			if store != nil {
				go runSnapshotScheduler(ctx, engine, store, cfg.SnapshotIntervalSeconds, logger, schedulerDone)
			} else {
				close(schedulerDone)
			}
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			logger.Info("stopping matching engine")
			cancel()
			select {
			case <-engine.Stopped():
			case <-stopCtx.Done():
			}
			select {
			case <-schedulerDone:
			case <-stopCtx.Done():
			}
			return nil
		},
	})

	return nil
}

func runSnapshotScheduler(ctx context.Context, engine *matchingengine.Engine, store *snapshotstore.Store, intervalSeconds int, logger *zap.Logger, done chan struct{}) {
	defer close(done)

	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			doc, err := engine.ExportStateSync(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("failed to export engine state for snapshot", zap.Error(err))
				continue
			}
			handle, err := store.Save(ctx, doc)
			if err != nil {
				logger.Warn("failed to save snapshot", zap.Error(err))
				continue
			}
			logger.Info("periodic snapshot saved", zap.String("handle", handle))
		}
	}
}
