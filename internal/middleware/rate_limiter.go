package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"botica/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type rateWindow struct {
	count int
	ends  time.Time
}

// ipLimiter counts requests per client IP in fixed windows. Expired windows
// are swept at most once per sweepEvery, on the request path.
type ipLimiter struct {
	limit      int
	window     time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	mu        sync.Mutex
	clients   map[string]*rateWindow
	lastSweep time.Time
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		limit:      limit,
		window:     window,
		sweepEvery: 5 * time.Minute,
		now:        time.Now,
		clients:    make(map[string]*rateWindow),
	}
}

// allow records a request from ip and reports whether it is within the
// limit. When it is not, retryAfter is the time left in the window.
func (l *ipLimiter) allow(ip string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, exists := l.clients[ip]
	if !exists || !now.Before(w.ends) {
		w = &rateWindow{ends: now.Add(l.window)}
		l.clients[ip] = w
	}
	w.count++
	if w.count > l.limit {
		return false, w.ends.Sub(now)
	}
	return true, 0
}

func (l *ipLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.sweepEvery {
		return
	}
	l.lastSweep = now
	purged := 0
	for ip, w := range l.clients {
		if !now.Before(w.ends) {
			delete(l.clients, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Int("entries_purged", purged).
			Int("entries_remaining", len(l.clients)).
			Msg("rate limiter map purged")
	}
}

// RateLimiter allows limit requests per window per client IP and answers
// 429 with Retry-After beyond that. A non-positive limit disables it.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := newIPLimiter(limit, window)
	return func(c *gin.Context) {
		ok, retryAfter := l.allow(c.ClientIP())
		if !ok {
			secs := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}
