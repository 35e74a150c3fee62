// Package model holds the wire-and-book-level domain types shared by the
// order book, the matching engine, the publishers and the snapshot store.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
)

// OrderSide is the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the admitted order type (§3).
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeIOC        OrderType = "ioc"
	OrderTypeFOK        OrderType = "fok"
	OrderTypeStopLoss   OrderType = "stop_loss"
	OrderTypeStopLimit  OrderType = "stop_limit"
	OrderTypeTakeProfit OrderType = "take_profit"
)

// IsStop reports whether t is one of the three pending-list order types.
func (t OrderType) IsStop() bool {
	return t == OrderTypeStopLoss || t == OrderTypeStopLimit || t == OrderTypeTakeProfit
}

// OrderStatus is the order state machine per §4.4.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusPending   OrderStatus = "pending"
)

// IsTerminal reports whether the order can no longer be mutated.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled || s == OrderStatusRejected
}

// Order is a single order admitted to the engine (§3).
type Order struct {
	OrderID           string
	Symbol            string
	OrderType         OrderType
	Side              OrderSide
	Quantity          decimal.Decimal
	Price             decimal.Decimal
	HasPrice          bool
	StopPrice         decimal.Decimal
	HasStopPrice      bool
	Timestamp         time.Time
	RemainingQuantity decimal.Decimal
	Status            OrderStatus
	IsTriggered       bool

	// CorrelationID is an internal trace identifier attached at admission
	// for log/error correlation. It never appears in the book or in any
	// published event — it is not a book-level identity.
	CorrelationID uuid.UUID
}

// FilledQuantity returns the quantity filled so far.
func (o *Order) FilledQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.RemainingQuantity)
}

// NewCorrelationID returns a fresh random correlation id.
func NewCorrelationID() uuid.UUID {
	return uuid.New()
}

// Clone returns a value copy of the order, safe to hand to a subscriber.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
