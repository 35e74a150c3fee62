package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lattice-exchange/matchingengine/internal/matchingengine"
	"github.com/lattice-exchange/matchingengine/internal/matchingfx"
	transporthttp "github.com/lattice-exchange/matchingengine/internal/transport/http"
	"github.com/lattice-exchange/matchingengine/internal/transport/ws"
	"github.com/lattice-exchange/matchingengine/pkg/config"
)

func main() {
	app := fx.New(
		fx.Provide(
			newAppConfig,
			newLogger,
			newGinEngine,
		),
		fx.Provide(fx.Annotate(
			newMetricsHandlerParams,
			fx.ResultTags(`name:"metricsAddr"`, `name:"metricsEnabled"`),
		)),

		matchingfx.Module,
		fx.Decorate(func(cfg *config.AppConfig) matchingengine.Config {
			return cfg.Matching
		}),

		fx.Provide(transporthttp.NewRouter),
		fx.Provide(ws.NewGateway),

		fx.Invoke(registerHTTPServer),
	)

	app.Run()
}

func newAppConfig() *config.AppConfig {
	path := os.Getenv("MATCHING_ENGINE_CONFIG")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func newLogger(cfg *config.AppConfig) *zap.Logger {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func newMetricsHandlerParams(cfg *config.AppConfig) (string, *bool) {
	enabled := cfg.Metrics.Enabled
	return cfg.Metrics.Addr, &enabled
}

func newGinEngine(cfg *config.AppConfig) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return gin.New()
}

// registerHTTPServer mounts the REST/WebSocket routes and hangs a
// standard http.Server off the fx lifecycle, the way the pack wires its
// own HTTP entry points: start listening on OnStart, shut down gracefully
// on OnStop.
func registerHTTPServer(lifecycle fx.Lifecycle, g *gin.Engine, router *transporthttp.Router, cfg *config.AppConfig, logger *zap.Logger) {
	router.Register(g)

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      g,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
