package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SubscribeAndPublishPreservesOrder(t *testing.T) {
	r := NewRegistry(4)
	sub, err := r.Subscribe(StreamTrades, "BTC-USD")
	require.NoError(t, err)

	r.Publish(StreamTrades, "BTC-USD", "first")
	r.Publish(StreamTrades, "BTC-USD", "second")

	assert.Equal(t, "first", <-sub.Events())
	assert.Equal(t, "second", <-sub.Events())
}

func TestRegistry_DropsOldestWhenQueueFull(t *testing.T) {
	r := NewRegistry(2)
	sub, err := r.Subscribe(StreamTrades, "BTC-USD")
	require.NoError(t, err)

	r.Publish(StreamTrades, "BTC-USD", 1)
	r.Publish(StreamTrades, "BTC-USD", 2)
	r.Publish(StreamTrades, "BTC-USD", 3) // queue full at 2, must drop "1"

	assert.Equal(t, 2, <-sub.Events(), "oldest event must have been dropped, not the newest")
	assert.Equal(t, 3, <-sub.Events())
	assert.Equal(t, uint64(1), sub.Dropped())
}

func TestRegistry_UnsubscribeRemovesSubscriber(t *testing.T) {
	r := NewRegistry(4)
	sub, err := r.Subscribe(StreamBBOAndDepth, "ETH-USD")
	require.NoError(t, err)
	assert.Equal(t, 1, r.SubscriberCount(StreamBBOAndDepth, "ETH-USD"))

	r.Unsubscribe(StreamBBOAndDepth, "ETH-USD", sub)
	assert.Equal(t, 0, r.SubscriberCount(StreamBBOAndDepth, "ETH-USD"))
}

func TestRegistry_SubscriberCapRejectsBeyondMax(t *testing.T) {
	r := NewRegistry(4)
	r.SetMaxSubscribersPerSymbol(1)

	_, err := r.Subscribe(StreamTrades, "BTC-USD")
	require.NoError(t, err)

	_, err = r.Subscribe(StreamTrades, "BTC-USD")
	assert.ErrorIs(t, err, ErrTooManySubscribers)
}

func TestRegistry_StreamsAreIndependentPerSymbol(t *testing.T) {
	r := NewRegistry(4)
	subBTC, err := r.Subscribe(StreamTrades, "BTC-USD")
	require.NoError(t, err)
	subETH, err := r.Subscribe(StreamTrades, "ETH-USD")
	require.NoError(t, err)

	r.Publish(StreamTrades, "BTC-USD", "btc-event")

	select {
	case ev := <-subBTC.Events():
		assert.Equal(t, "btc-event", ev)
	default:
		t.Fatal("expected an event on the BTC-USD subscription")
	}
	assert.Len(t, subETH.Events(), 0, "a BTC-USD event must not reach the ETH-USD subscription")
}
