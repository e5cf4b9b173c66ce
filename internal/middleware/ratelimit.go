package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter is an in-memory sliding-window limiter keyed by an arbitrary
// string, here the client IP. State is per process; a multi-instance
// deployment limits per instance.
type RateLimiter struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	window  time.Duration
	maxReqs int
}

// NewRateLimiter creates a limiter allowing maxReqs requests per key within
// the window and starts its background pruning loop.
func NewRateLimiter(window time.Duration, maxReqs int) *RateLimiter {
	rl := &RateLimiter{
		seen:    make(map[string][]time.Time),
		window:  window,
		maxReqs: maxReqs,
	}
	go rl.prune()
	return rl
}

// Allow records an attempt for key and reports whether it fits the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	attempts := rl.seen[key]

	// drop expired attempts in place
	kept := attempts[:0]
	for _, t := range attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.maxReqs {
		rl.seen[key] = kept
		return false
	}

	rl.seen[key] = append(kept, time.Now())
	return true
}

// prune evicts keys whose attempts have all aged out, so one-off clients do
// not grow the map forever.
func (rl *RateLimiter) prune() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.window)
		rl.mu.Lock()
		for key, attempts := range rl.seen {
			live := false
			for _, t := range attempts {
				if t.After(cutoff) {
					live = true
					break
				}
			}
			if !live {
				delete(rl.seen, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware rejects requests over the limit with 429.
func RateLimitMiddleware(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r)) {
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIPKey derives the limiter key from the client address. RealIP middleware
// runs earlier in the chain, so RemoteAddr already reflects X-Forwarded-For
// when a proxy set it.
func GetIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP leaves a bare IP without a port
		host = r.RemoteAddr
	}
	return "ip:" + host
}
