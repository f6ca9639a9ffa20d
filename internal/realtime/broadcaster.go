package realtime

import (
	"context"
	"encoding/json"

	"botica/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel is the Redis pub/sub channel every instance publishes to and
// every Hub subscribes to.
const Channel = "botica:events"

// RedisBroadcaster publishes events on Channel. Calls go through a circuit
// breaker so a Redis outage costs one fast failure per event instead of a
// dial timeout on every sale.
type RedisBroadcaster struct {
	rdb *redis.Client
	cb  *infra.CircuitBreaker
}

func NewRedisBroadcaster(rdb *redis.Client, cb *infra.CircuitBreaker) *RedisBroadcaster {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &RedisBroadcaster{rdb: rdb, cb: cb}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("realtime: marshal event")
		return
	}
	err = b.cb.Execute(func() error {
		return b.rdb.Publish(ctx, Channel, data).Err()
	})
	if err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Str("breaker", b.cb.State().String()).
			Msg("realtime: event dropped")
	}
}

// BreakerState exposes the breaker state for the health endpoint.
func (b *RedisBroadcaster) BreakerState() infra.CBState { return b.cb.State() }
