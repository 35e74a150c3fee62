package book

import (
	"github.com/lattice-exchange/matchingengine/internal/model"
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
)

// node is one FIFO queue slot inside a price level. Holding the node
// pointer in the order index lets removeOrder unlink in O(1) instead of
// scanning the level (§4.2).
type node struct {
	order      *model.Order
	prev, next *node
}

// level is the FIFO queue of resting orders at one price, plus the
// aggregate remaining quantity (§3, §4.2).
type level struct {
	price         decimal.Decimal
	head, tail    *node
	count         int
	totalQuantity decimal.Decimal
}

func newLevel(price decimal.Decimal) *level {
	return &level{price: price, totalQuantity: decimal.Zero}
}

// addOrder appends to the tail in O(1) and increments totalQuantity.
func (l *level) addOrder(o *model.Order) *node {
	n := &node{order: o}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.count++
	l.totalQuantity = l.totalQuantity.Add(o.RemainingQuantity)
	return n
}

// removeNode unlinks n from the queue in O(1) and decrements totalQuantity
// by its remaining quantity at the time of removal.
func (l *level) removeNode(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.count--
	l.totalQuantity = l.totalQuantity.Sub(n.order.RemainingQuantity)
}

// adjust applies a signed delta to totalQuantity on a partial fill of one
// of the level's orders, without removing the order (§4.2).
func (l *level) adjust(delta decimal.Decimal) {
	l.totalQuantity = l.totalQuantity.Add(delta)
}

// isEmpty reports whether the level has no resting orders. The level never
// self-deletes (§4.2) — the owning book removes it from the price map.
func (l *level) isEmpty() bool {
	return l.count == 0
}

// front returns the oldest (FIFO head) order, or nil.
func (l *level) front() *node {
	return l.head
}
