package chat

import (
	"sync"
	"time"
)

// DefaultRateLimit is the number of messages accepted per conversation per
// window before the assistant starts refusing.
const DefaultRateLimit = 20

// RateLimiter is a fixed-window message limiter keyed by sender. Each sender
// has an independent counter that resets after the window elapses.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*windowBucket
}

type windowBucket struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit messages per window.
// Pass limit <= 0 to use DefaultRateLimit.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*windowBucket),
	}
}

// Allow returns true if the sender is within its limit, false when exceeded.
// Safe for concurrent use.
func (r *RateLimiter) Allow(sender string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	b, ok := r.buckets[sender]
	if !ok || now.After(b.resetAt) {
		r.buckets[sender] = &windowBucket{count: 1, resetAt: now.Add(r.window)}
		return true
	}
	if b.count >= r.limit {
		return false
	}
	b.count++
	return true
}
