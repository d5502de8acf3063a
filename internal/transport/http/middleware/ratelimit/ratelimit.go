// Package ratelimit provides rate limiting middleware using token bucket algorithm.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/chatrelay/internal/types"
)

// bucket represents a token bucket for rate limiting.
type bucket struct {
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// Limiter tracks rate limits per client API key.
type Limiter struct {
	buckets sync.Map // map[keyID]*bucket
	now     func() time.Time
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{now: time.Now}
}

// Allow reports whether a request fits within rateLimit requests per minute.
// A rateLimit of 0 or less means unlimited.
func (l *Limiter) Allow(keyID string, rateLimit int) bool {
	if rateLimit <= 0 {
		return true
	}

	now := l.now()
	val, _ := l.buckets.LoadOrStore(keyID, &bucket{
		tokens:   float64(rateLimit),
		lastFill: now,
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	// Refill based on elapsed time, capped at capacity
	elapsed := now.Sub(b.lastFill).Seconds()
	b.tokens += elapsed * float64(rateLimit) / 60.0
	if b.tokens > float64(rateLimit) {
		b.tokens = float64(rateLimit)
	}
	b.lastFill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// Forget drops the bucket for a revoked key so it stops holding memory.
func (l *Limiter) Forget(keyID string) {
	l.buckets.Delete(keyID)
}

// Middleware returns an HTTP middleware that enforces rate limits.
// Must be used after auth.APIKeyAuth (needs the key in context).
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := auth.GetAPIKey(r.Context())
			if key == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(key.ID, key.RateLimit) {
				w.Header().Set("Retry-After", "60")
				types.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
