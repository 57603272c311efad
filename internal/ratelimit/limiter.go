// Package ratelimit bounds contact form submissions per client identity
// within a rolling time window. The decision is evaluated as a sliding
// window over recorded attempt timestamps, not fixed buckets.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Limiter decides whether a client may submit. Calling Allow records the
// attempt whether or not it is admitted.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
}

// ClientKey derives a stable, non-reversible store key from a client IP.
func ClientKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// Store is the key-value association backing a SlidingWindow limiter.
// Implementations must tolerate concurrent access for the same key without
// corruption; a lost update under race is acceptable (anti-abuse control,
// not a security boundary).
type Store interface {
	Get(ctx context.Context, key string) ([]time.Time, error)
	Put(ctx context.Context, key string, attempts []time.Time, ttl time.Duration) error
}

// SlidingWindow is a Limiter over a Store of attempt timestamp sequences.
type SlidingWindow struct {
	store       Store
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a sliding-window limiter allowing maxAttempts
// submissions per client in any trailing window.
func NewSlidingWindow(store Store, maxAttempts int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// WithClock overrides the limiter's clock. Used in tests.
func (l *SlidingWindow) WithClock(now func() time.Time) *SlidingWindow {
	l.now = now
	return l
}

// Allow loads the client's attempt history, drops entries older than the
// window, and admits the request if fewer than maxAttempts remain. The
// current attempt is appended to the stored sequence either way.
func (l *SlidingWindow) Allow(ctx context.Context, clientKey string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	attempts, err := l.store.Get(ctx, clientKey)
	if err != nil {
		return false, err
	}

	kept := attempts[:0]
	for _, t := range attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	allowed := len(kept) < l.maxAttempts

	kept = append(kept, now)
	if err := l.store.Put(ctx, clientKey, kept, l.window); err != nil {
		return false, err
	}

	return allowed, nil
}
