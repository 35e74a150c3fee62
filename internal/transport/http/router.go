// Package http is the thin REST adapter boundary for order admission and
// book queries. It contains no matching logic of its own — every handler
// decodes a request, calls the engine's synchronous facade, and encodes the
// result (§4, "Out of scope: external transport auth" — the adapter itself
// is in scope, authn/authz at this boundary is not).
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lattice-exchange/matchingengine/internal/matchingengine"
	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/internal/publish"
	"github.com/lattice-exchange/matchingengine/internal/transport/ws"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
	tserrors "github.com/lattice-exchange/matchingengine/pkg/errors"
)

// Router builds the order admission/query REST surface over an Engine, and
// mounts the streaming WebSocket gateway alongside it.
type Router struct {
	engine  *matchingengine.Engine
	gateway *ws.Gateway
	logger  *zap.Logger
}

// NewRouter constructs a Router over engine and the streaming gateway.
func NewRouter(engine *matchingengine.Engine, gateway *ws.Gateway, logger *zap.Logger) *Router {
	return &Router{engine: engine, gateway: gateway, logger: logger}
}

// Register mounts every route onto g.
func (rt *Router) Register(g *gin.Engine) {
	g.POST("/orders", rt.placeOrder)
	g.DELETE("/orders/:symbol/:orderID", rt.cancelOrder)
	g.GET("/orderbook/:symbol", rt.snapshot)
	g.GET("/ws/bbo/:symbol", rt.streamBBO)
	g.GET("/ws/trades/:symbol", rt.streamTrades)
}

func (rt *Router) streamBBO(c *gin.Context) {
	rt.gateway.ServeStream(c.Writer, c.Request, publish.StreamBBOAndDepth, c.Param("symbol"))
}

func (rt *Router) streamTrades(c *gin.Context) {
	rt.gateway.ServeStream(c.Writer, c.Request, publish.StreamTrades, c.Param("symbol"))
}

type placeOrderRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	OrderType string `json:"order_type" binding:"required"`
	Side      string `json:"side" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`
	Price     string `json:"price"`
	StopPrice string `json:"stop_price"`
}

func (rt *Router) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := requestToOrder(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	placed, trades, err := rt.engine.ProcessOrder(c.Request.Context(), order)
	if err != nil {
		rt.logger.Warn("order rejected", zap.String("symbol", req.Symbol), zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error(), "order": placed})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": placed, "trades": trades})
}

func (rt *Router) cancelOrder(c *gin.Context) {
	symbol := c.Param("symbol")
	orderID := c.Param("orderID")

	order, err := rt.engine.CancelOrder(c.Request.Context(), symbol, orderID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (rt *Router) snapshot(c *gin.Context) {
	symbol := c.Param("symbol")
	snap, err := rt.engine.Snapshot(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func requestToOrder(req placeOrderRequest) (*model.Order, error) {
	qty, err := decimal.Parse(req.Quantity)
	if err != nil {
		return nil, tserrors.New(tserrors.ErrInvalidQuantity, "quantity is not a valid decimal")
	}

	order := &model.Order{
		Symbol:    req.Symbol,
		OrderType: model.OrderType(req.OrderType),
		Side:      model.OrderSide(req.Side),
		Quantity:  qty,
	}

	if req.Price != "" {
		price, err := decimal.Parse(req.Price)
		if err != nil {
			return nil, tserrors.New(tserrors.ErrInvalidPrice, "price is not a valid decimal")
		}
		order.Price = price
		order.HasPrice = true
	}
	if req.StopPrice != "" {
		stopPrice, err := decimal.Parse(req.StopPrice)
		if err != nil {
			return nil, tserrors.New(tserrors.ErrInvalidPrice, "stop_price is not a valid decimal")
		}
		order.StopPrice = stopPrice
		order.HasStopPrice = true
	}

	return order, nil
}

func statusForError(err error) int {
	switch {
	case tserrors.IsClientError(err):
		return http.StatusBadRequest
	case tserrors.IsServerError(err):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
