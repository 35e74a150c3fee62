package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the engine's Prometheus registry, collectors, and the
// /metrics HTTP endpoint.
var Module = fx.Options(
	fx.Provide(NewPrometheusRegistry),
	fx.Provide(NewEngineMetrics),
	fx.Invoke(RegisterMetricsHandler),
)

// NewPrometheusRegistry creates a new Prometheus registry.
func NewPrometheusRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// defaultMetricsAddr is used when no address is configured.
const defaultMetricsAddr = ":9090"

// RegisterMetricsHandler starts an HTTP server exposing registry at /metrics,
// wired into the application's fx lifecycle. Honors params.Enabled /
// params.Addr when the application provides them; both are optional so
// packages that embed this module without the root config (e.g. isolated
// tests) still get a working default.
func RegisterMetricsHandler(lifecycle fx.Lifecycle, registry *prometheus.Registry, logger *zap.Logger, params MetricsHandlerParams) {
	if params.Enabled != nil && !*params.Enabled {
		logger.Info("metrics server disabled by configuration")
		return
	}

	addr := defaultMetricsAddr
	if params.Addr != "" {
		addr = params.Addr
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{Addr: addr, Handler: mux}

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting metrics server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping metrics server")
			return server.Shutdown(ctx)
		},
	})
}

// MetricsHandlerParams carries the optional addr/enabled override for the
// /metrics endpoint without this package importing pkg/config (which would
// create an import cycle back through matchingengine.Config).
type MetricsHandlerParams struct {
	fx.In

	Addr    string `optional:"true" name:"metricsAddr"`
	Enabled *bool  `optional:"true" name:"metricsEnabled"`
}
