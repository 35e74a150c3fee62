package publish

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultSubscriberBuffer is the default bounded queue size per subscriber.
const DefaultSubscriberBuffer = 256

// Subscription is a single subscriber's inbound event queue. Events arrive
// in the order the engine emitted them (§4.5, §5 "Ordering guarantees").
// A slow consumer never blocks the engine: once the queue is full, the
// oldest buffered event is dropped to make room and Dropped is incremented
// (§4.5's recommended "bounded per-subscriber queue, drop-oldest").
type Subscription struct {
	id     uint64
	events chan interface{}
	mu     sync.Mutex
	dropped uint64
}

// Events returns the channel of events for this subscription.
func (s *Subscription) Events() <-chan interface{} {
	return s.events
}

// Dropped returns the number of events dropped so far due to a full queue.
func (s *Subscription) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// enqueue delivers ev to the subscriber, dropping the oldest queued event
// first if the buffer is full. Never blocks.
func (s *Subscription) enqueue(ev interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
			atomic.AddUint64(&s.dropped, 1)
		default:
			// Raced with a concurrent drain; retry the send.
		}
	}
}

type key struct {
	kind   StreamKind
	symbol string
}

// Registry fans events out to subscribers registered per (stream_kind,
// symbol) (§4.5). Registration and fan-out are safe for concurrent use;
// fan-out to each subscriber preserves that subscriber's arrival order.
type Registry struct {
	mu             sync.RWMutex
	subscribers    map[key][]*Subscription
	nextID         uint64
	bufferSize     int
	maxPerSymbol   int
}

// NewRegistry constructs a Registry whose subscriber queues hold
// bufferSize events before drop-oldest kicks in.
func NewRegistry(bufferSize int) *Registry {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	return &Registry{
		subscribers: make(map[key][]*Subscription),
		bufferSize:  bufferSize,
	}
}

// SetMaxSubscribersPerSymbol caps the number of simultaneous subscribers
// Subscribe admits for any single (kind, symbol) pair. Zero means no cap.
func (r *Registry) SetMaxSubscribersPerSymbol(max int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxPerSymbol = max
}

// ErrTooManySubscribers is returned by Subscribe when (kind, symbol) is
// already at its configured subscriber cap.
var ErrTooManySubscribers = fmt.Errorf("publish: too many subscribers for this symbol")

// Subscribe registers a new subscription for (kind, symbol), rejecting the
// request if the symbol is already at its configured subscriber cap (§6
// "max_subscribers_per_symbol").
func (r *Registry) Subscribe(kind StreamKind, symbol string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind, symbol}
	if r.maxPerSymbol > 0 && len(r.subscribers[k]) >= r.maxPerSymbol {
		return nil, ErrTooManySubscribers
	}

	r.nextID++
	sub := &Subscription{id: r.nextID, events: make(chan interface{}, r.bufferSize)}
	r.subscribers[k] = append(r.subscribers[k], sub)
	return sub, nil
}

// Unsubscribe removes sub from (kind, symbol). No-op if not registered.
func (r *Registry) Unsubscribe(kind StreamKind, symbol string, sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind, symbol}
	subs := r.subscribers[k]
	for i, s := range subs {
		if s == sub {
			r.subscribers[k] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish hands ev to every subscriber of (kind, symbol). Copying the event
// is the caller's responsibility (publishers copy before calling Publish).
func (r *Registry) Publish(kind StreamKind, symbol string, ev interface{}) {
	r.mu.RLock()
	subs := r.subscribers[key{kind, symbol}]
	// Copy the slice under the lock so enqueue (which may block briefly on
	// its own mutex) never runs while holding the registry lock.
	snapshot := make([]*Subscription, len(subs))
	copy(snapshot, subs)
	r.mu.RUnlock()

	for _, sub := range snapshot {
		sub.enqueue(ev)
	}
}

// SubscriberCount returns the number of subscribers on (kind, symbol).
func (r *Registry) SubscriberCount(kind StreamKind, symbol string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[key{kind, symbol}])
}
