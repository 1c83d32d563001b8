package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// RateLimiter applies a fixed per-user window to expensive routes. Counts
// reset when the window rolls over; unauthenticated requests share one
// bucket keyed by uuid.Nil.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[uuid.UUID]*bucket
	now     func() time.Time
}

type bucket struct {
	windowStart time.Time
	count       int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: map[uuid.UUID]*bucket{},
		now:     time.Now,
	}
}

// Allow reports whether userID may proceed; when denied it also returns the
// time until the window resets.
func (rl *RateLimiter) Allow(userID uuid.UUID) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[userID]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[userID] = &bucket{windowStart: now, count: 1}
		return true, 0
	}

	if b.count >= rl.limit {
		return false, b.windowStart.Add(rl.window).Sub(now)
	}
	b.count++
	return true, 0
}

func RateLimit(rl *RateLimiter) drift.HandlerFunc {
	return func(c *drift.Context) {
		ok, retryAfter := rl.Allow(GetUserID(c))
		if !ok {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Response.Header().Set("Retry-After", strconv.Itoa(seconds))
			_ = c.JSON(http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{
					"kind":    "RateLimited",
					"message": "report rate limit exceeded",
				},
			})
			return
		}
		c.Next()
	}
}
