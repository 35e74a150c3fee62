package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-exchange/matchingengine/internal/matchingengine"
	"github.com/lattice-exchange/matchingengine/internal/metrics"
	"github.com/lattice-exchange/matchingengine/internal/publish"
	"github.com/lattice-exchange/matchingengine/internal/transport/ws"
	pkgtesting "github.com/lattice-exchange/matchingengine/pkg/testing"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, _ := pkgtesting.NewObservedLogger()
	registry := publish.NewRegistry(publish.DefaultSubscriberBuffer)
	marketData := publish.NewMarketDataPublisher(registry, logger)
	trades := publish.NewTradePublisher(registry, logger)
	em := metrics.NewEngineMetrics(prometheus.NewRegistry())

	engine := matchingengine.New(matchingengine.DefaultConfig(), marketData, trades, em, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go engine.Run(ctx)

	gateway := ws.NewGateway(registry, logger)
	rt := NewRouter(engine, gateway, logger)
	g := gin.New()
	rt.Register(g)
	return g
}

func TestRouter_PlaceOrder_ValidLimitOrderReturnsOK(t *testing.T) {
	g := newTestRouter(t)

	body, _ := json.Marshal(placeOrderRequest{
		Symbol:    "BTC-USD",
		OrderType: "limit",
		Side:      "buy",
		Quantity:  "1",
		Price:     "100",
	})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	g.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "order")
}

func TestRouter_PlaceOrder_InvalidQuantityReturnsBadRequest(t *testing.T) {
	g := newTestRouter(t)

	body, _ := json.Marshal(placeOrderRequest{
		Symbol:    "BTC-USD",
		OrderType: "limit",
		Side:      "buy",
		Quantity:  "not-a-number",
		Price:     "100",
	})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	g.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CancelOrder_NotFoundReturnsClientError(t *testing.T) {
	g := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/orders/BTC-USD/ORD-0000000001", nil)
	rec := httptest.NewRecorder()

	g.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Snapshot_ReturnsEmptyBookForUnknownSymbol(t *testing.T) {
	g := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/orderbook/BTC-USD", nil)
	rec := httptest.NewRecorder()

	g.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
