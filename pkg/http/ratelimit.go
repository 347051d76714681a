package http

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces outgoing requests
type RateLimiter interface {
	// Wait blocks until a request may be sent or ctx is done
	Wait(ctx context.Context) error
}

// IntervalLimiter enforces a minimum delay between consecutive requests
type IntervalLimiter struct {
	mu       sync.Mutex
	next     time.Time
	minDelay time.Duration
}

// NewIntervalLimiter creates a limiter allowing one request per minDelay
func NewIntervalLimiter(minDelay time.Duration) *IntervalLimiter {
	return &IntervalLimiter{minDelay: minDelay}
}

// Wait implements RateLimiter. Each caller reserves the next free slot, so
// concurrent callers are spaced out rather than released together.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.minDelay)
	l.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoOpRateLimiter performs no rate limiting
type NoOpRateLimiter struct{}

// Wait implements RateLimiter
func (NoOpRateLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}
