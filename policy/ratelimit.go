package policy

import (
	"sync"
	"time"

	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// RateLimiter denies a handshake once a browser id has attempted more
// than maxAttempts within window, locking it out for lockout once
// tripped. It is a sliding window over recorded attempt timestamps, the
// same shape as the host application's auth rate limiter, keyed by
// browser id instead of client IP since that's what a Session exposes.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string][]time.Time
	lockedUntil map[string]time.Time

	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

func NewRateLimiter(maxAttempts int, window, lockout time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts:    make(map[string][]time.Time),
		lockedUntil: make(map[string]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
	}
}

func (r *RateLimiter) CanHandshake(s *session.Session, m *message.Message) bool {
	key := s.BrowserID()
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if until, locked := r.lockedUntil[key]; locked {
		if until.After(now) {
			return false
		}
		delete(r.lockedUntil, key)
		delete(r.attempts, key)
	}

	recent := r.recentAttempts(key, now)
	recent = append(recent, now)
	r.attempts[key] = recent

	if len(recent) > r.maxAttempts {
		r.lockedUntil[key] = now.Add(r.lockout)
		return false
	}
	return true
}

func (r *RateLimiter) recentAttempts(key string, now time.Time) []time.Time {
	cutoff := now.Add(-r.window)
	var kept []time.Time
	for _, t := range r.attempts[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
