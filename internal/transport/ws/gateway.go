// Package ws is the thin WebSocket adapter for the market-data and trade
// streams (§4.5). It holds no matching logic: a connection subscribes to
// the publish.Registry for a symbol and relays whatever arrives, following
// the upgrader shape of the pack's WebSocket gateway.
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lattice-exchange/matchingengine/internal/publish"
)

// Gateway upgrades HTTP connections and relays published stream events.
type Gateway struct {
	registry *publish.Registry
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewGateway constructs a Gateway over registry.
func NewGateway(registry *publish.Registry, logger *zap.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// writeDeadline bounds how long a single relayed frame may take to send,
// so one stalled client cannot stall the relay goroutine indefinitely.
const writeDeadline = 5 * time.Second

// ServeStream upgrades the connection and relays every event published on
// (kind, symbol) until a write to the client fails; a disconnect is noticed
// on the next write after it. Intended to be mounted behind a route like
// /ws/:kind/:symbol.
func (g *Gateway) ServeStream(w http.ResponseWriter, r *http.Request, kind publish.StreamKind, symbol string) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub, err := g.registry.Subscribe(kind, symbol)
	if err != nil {
		g.logger.Warn("subscription rejected", zap.String("symbol", symbol), zap.Error(err))
		_ = conn.WriteControl(websocket.ClosePolicyViolation, []byte(err.Error()), time.Now().Add(writeDeadline))
		return
	}
	defer g.registry.Unsubscribe(kind, symbol, sub)

	for ev := range sub.Events() {
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(ev); err != nil {
			g.logger.Debug("websocket write failed, closing relay", zap.Error(err))
			return
		}
	}
}
