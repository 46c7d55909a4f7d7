package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(4)

	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	bus.Publish("book.borrowed", map[string]any{"book_id": int64(3)})

	for _, sub := range []<-chan Event{first, second} {
		select {
		case evt := <-sub:
			assert.Equal(t, "book.borrowed", evt.Name)
			assert.Equal(t, int64(3), evt.Fields["book_id"])
		case <-time.After(time.Second):
			t.Fatal("expected event was not delivered")
		}
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus(4)

	sub, cancel := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	cancel()
	assert.Equal(t, 0, bus.SubscriberCount())

	// Channel is closed after cancel.
	_, open := <-sub
	assert.False(t, open)

	// Cancel twice is safe.
	cancel()
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(1)

	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Buffer of one: extra publishes are dropped, never block.
		for i := 0; i < 10; i++ {
			bus.Publish("session.login", nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
