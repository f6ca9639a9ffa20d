package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, typ string, payload any) Event {
	t.Helper()
	ev, err := NewEvent(typ, payload)
	require.NoError(t, err)
	return ev
}

func TestNewEvent(t *testing.T) {
	ev := mustEvent(t, StockUpdated, map[string]int{"quantity": 5})
	assert.Equal(t, StockUpdated, ev.Type)
	assert.JSONEq(t, `{"quantity":5}`, string(ev.Payload))
	assert.WithinDuration(t, time.Now(), ev.OccurredAt, time.Second)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())

	_, err := NewEvent(StockUpdated, make(chan int))
	assert.Error(t, err)
}

func TestHub_FanOut(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelA()
	defer cancelB()
	assert.Equal(t, 2, h.Subscribers())

	ev := mustEvent(t, SaleCreated, map[string]string{"sale_number": "VTA-202603-0001"})
	h.Broadcast(ev)

	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-b)
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Subscribers())

	h.Broadcast(mustEvent(t, AlertCreated, nil))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	slow, cancelSlow := h.Subscribe()
	defer cancelSlow()
	fast, cancelFast := h.Subscribe()
	defer cancelFast()

	ev := mustEvent(t, StockUpdated, map[string]int{"quantity": 1})
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			h.Broadcast(ev)
			<-fast
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
	assert.Len(t, slow, subscriberBuffer)
}

func TestEventJSON(t *testing.T) {
	ev := Event{
		Type:       AlertResolved,
		Payload:    json.RawMessage(`{"id":"a1"}`),
		OccurredAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"alert.resolved","payload":{"id":"a1"},"occurred_at":"2026-03-14T12:00:00Z"}`, string(raw))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.Publish(context.Background(), mustEvent(t, ProductDeleted, nil))
}
