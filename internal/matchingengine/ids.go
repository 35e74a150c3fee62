package matchingengine

import (
	"fmt"
	"sync/atomic"
)

// idGenerator produces the engine's monotonically increasing, formatted
// identifiers: ORD-%010d for orders, TRD-%010d for trades (§6). Only the
// engine's single command-processing goroutine calls Next, so the counter
// itself does not need to be atomic for correctness — it is kept atomic
// only so Counter (read when exporting a snapshot document) can be read
// from another goroutine without racing.
type idGenerator struct {
	prefix  string
	counter uint64
}

func newIDGenerator(prefix string) *idGenerator {
	return &idGenerator{prefix: prefix}
}

// Next returns the next formatted id.
func (g *idGenerator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-%010d", g.prefix, n)
}

// Counter returns the current counter value (for snapshotting).
func (g *idGenerator) Counter() uint64 {
	return atomic.LoadUint64(&g.counter)
}

// SetCounter restores the counter value (for snapshot load).
func (g *idGenerator) SetCounter(n uint64) {
	atomic.StoreUint64(&g.counter, n)
}
