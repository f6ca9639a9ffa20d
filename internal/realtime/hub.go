package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 32

// Hub fans events out to in-process subscribers (one per open SSE stream).
// A subscriber that falls behind loses events rather than slowing the others.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the consumer goes away; it closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast delivers ev to every subscriber without blocking.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Debug().Int("subscriber", id).Str("event", ev.Type).Msg("realtime: slow subscriber, event dropped")
		}
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Run relays every message on Channel to the local subscribers until ctx is done.
func (h *Hub) Run(ctx context.Context, rdb *redis.Client) {
	pubsub := rdb.Subscribe(ctx, Channel)
	go func() {
		defer pubsub.Close()
		log.Info().Str("channel", Channel).Msg("realtime: hub subscribed")
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("realtime: hub shutting down")
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Msg("realtime: invalid event on channel")
					continue
				}
				h.Broadcast(ev)
			}
		}
	}()
}
