package infra

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRedis = errors.New("dial tcp: connection refused")

func failing() error { return errRedis }
func ok() error      { return nil }

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.now
	return cb, clock
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(failing), errRedis)
	}
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})

	_ = cb.Execute(failing)
	assert.NoError(t, cb.Execute(ok))
	_ = cb.Execute(failing)
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Minute})

	_ = cb.Execute(failing)
	assert.Equal(t, CBOpen, cb.State())

	clock.advance(59 * time.Second)
	assert.Equal(t, CBOpen, cb.State())
	clock.advance(time.Second)
	assert.Equal(t, CBHalfOpen, cb.State())

	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	_ = cb.Execute(failing)
	clock.advance(time.Minute)
	assert.ErrorIs(t, cb.Execute(failing), errRedis)
	assert.Equal(t, CBOpen, cb.State())

	// The open timeout restarts from the failed half-open call.
	clock.advance(30 * time.Second)
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_OneCallAtATimeInHalfOpen(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Minute})
	_ = cb.Execute(failing)
	clock.advance(time.Minute)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = cb.Execute(func() error {
			close(inFlight)
			<-release
			return nil
		})
	}()

	<-inFlight
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)
	close(release)
	wg.Wait()

	require.Equal(t, CBClosed, cb.State())
	assert.NoError(t, cb.Execute(ok))
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	assert.Equal(t, 5, cb.cfg.FailureThreshold)
	assert.Equal(t, 2, cb.cfg.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cb.cfg.OpenTimeout)
	assert.Equal(t, "events", DefaultCBConfig().Name)
}

func TestCBStateString(t *testing.T) {
	assert.Equal(t, "closed", CBClosed.String())
	assert.Equal(t, "open", CBOpen.String())
	assert.Equal(t, "half-open", CBHalfOpen.String())
	assert.Equal(t, "unknown", CBState(9).String())
}
