package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the steady request rate allowed per key.
	DefaultRate = rate.Limit(5)
	// DefaultBurst is the burst allowed per key.
	DefaultBurst = 10
)

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	limit  rate.Limit
	burst  int
}

// NewRateLimiter creates a rate limiter. Non-positive values use the defaults.
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		limit:  limit,
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait blocks until a request is allowed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Forget drops the limiter for key.
func (rl *RateLimiter) Forget(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limits, key)
}

// Prune drops limiters that are back to a full bucket.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	pruned := 0
	for key, l := range rl.limits {
		if l.TokensAt(now) >= float64(rl.burst) {
			delete(rl.limits, key)
			pruned++
		}
	}
	return pruned
}

// KeyFunc extracts the rate limiting key from a request.
type KeyFunc func(c echo.Context) string

// ConversationKey keys on the :id path parameter, falling back to the client IP.
func ConversationKey(c echo.Context) string {
	if id := c.Param("id"); id != "" {
		return "conversation:" + id
	}
	return "ip:" + c.RealIP()
}

// Echo returns middleware rejecting requests over the limit with 429.
func (rl *RateLimiter) Echo(key KeyFunc) echo.MiddlewareFunc {
	if key == nil {
		key = ConversationKey
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(key(c)) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
