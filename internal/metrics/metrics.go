// Package metrics exposes the engine's Prometheus instrumentation: counts
// of orders processed, rejected and trades executed, a processing latency
// histogram, a pending-stop-orders gauge, and a subscriber drops counter
// (§4.5, §6's "ambient observability"). The engine updates every collector
// except SubscriberDrops, which is registered but not incremented by any
// code in this module; per-subscription drop counts are available from
// publish.Subscription.Dropped. Grounded on the same registry/handler shape as the
// pack's WebSocket metrics module, reworked for the matching engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics holds every Prometheus collector the engine updates while
// processing commands.
type EngineMetrics struct {
	OrdersProcessed  *prometheus.CounterVec
	TradesExecuted   *prometheus.CounterVec
	OrdersRejected   *prometheus.CounterVec
	ProcessingLatency *prometheus.HistogramVec
	SubscriberDrops  *prometheus.CounterVec
	PendingStops     *prometheus.GaugeVec
}

// NewEngineMetrics registers every collector against registry.
func NewEngineMetrics(registry *prometheus.Registry) *EngineMetrics {
	m := &EngineMetrics{
		OrdersProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchingengine",
			Name:      "orders_processed_total",
			Help:      "Orders admitted, by symbol and order type.",
		}, []string{"symbol", "order_type"}),

		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchingengine",
			Name:      "trades_executed_total",
			Help:      "Trades executed, by symbol.",
		}, []string{"symbol"}),

		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchingengine",
			Name:      "orders_rejected_total",
			Help:      "Orders rejected, by symbol and error code.",
		}, []string{"symbol", "error_code"}),

		ProcessingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchingengine",
			Name:      "order_processing_seconds",
			Help:      "Time spent processing a single admitted order inside the engine goroutine.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"symbol"}),

		SubscriberDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchingengine",
			Name:      "subscriber_drops_total",
			Help:      "Events dropped because a subscriber's queue was full.",
		}, []string{"stream"}),

		PendingStops: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matchingengine",
			Name:      "pending_stop_orders",
			Help:      "Stop orders currently resting in the pending list, by symbol.",
		}, []string{"symbol"}),
	}

	registry.MustRegister(
		m.OrdersProcessed,
		m.TradesExecuted,
		m.OrdersRejected,
		m.ProcessingLatency,
		m.SubscriberDrops,
		m.PendingStops,
	)
	return m
}
