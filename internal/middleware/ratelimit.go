package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type window struct {
	count   int
	startAt time.Time
}

// InMemoryRateLimiter counts requests per key in fixed windows. A counter
// per key is enough at this API's traffic; burst smoothing is the reverse
// proxy's job.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
}

func NewInMemoryRateLimiter(limit int, period time.Duration) *InMemoryRateLimiter {
	l := &InMemoryRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
	}
	go l.sweep()
	return l
}

// Allow reports whether the key may proceed, and if not, how long until its
// window resets.
func (l *InMemoryRateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	w := l.windows[key]
	if w == nil || now.Sub(w.startAt) >= l.period {
		l.windows[key] = &window{count: 1, startAt: now}
		return true, 0
	}
	if w.count >= l.limit {
		return false, w.startAt.Add(l.period).Sub(now)
	}
	w.count++
	return true, 0
}

// sweep drops windows nobody has touched for a full period, so one-off
// clients do not accumulate forever.
func (l *InMemoryRateLimiter) sweep() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-l.period)
		for key, w := range l.windows {
			if w.startAt.Before(cutoff) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit throttles by authenticated user when one is set, falling back
// to the client IP for anonymous traffic (webhooks, auth endpoints).
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := GetUserID(c); id != 0 {
			key = "user:" + strconv.FormatUint(uint64(id), 10)
		}
		ok, retryIn := limiter.Allow(key)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(retryIn.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
