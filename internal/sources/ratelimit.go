package sources

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket limiter plus a random politeness delay.
// The token bucket bounds sustained request rate; the extra delay spreads
// requests inside the allowed rate so they do not look machine-timed.
// Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

// NewRateLimiter creates a limiter allowing ratePerSecond sustained requests
// with the given burst. minDelay/maxDelay bound the additional random pause
// sampled before every request; both zero disables the extra delay.
func NewRateLimiter(ratePerSecond float64, burst int, minDelay, maxDelay time.Duration) *RateLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks until a request is allowed, then for the sampled politeness
// delay. Both waits are interruptible by context cancellation, so a per-query
// deadline can abort a pending request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	delay := r.sampleDelay()
	if delay <= 0 {
		return nil
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

// Allow reports whether a request may proceed without waiting, consuming one
// token when it may.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetRate updates the sustained rate, preserving burst. Used to slow down
// after a source signals throttling.
func (r *RateLimiter) SetRate(ratePerSecond float64) {
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// Tokens returns the currently available token count, for tests and logging.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}

func (r *RateLimiter) sampleDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxDelay <= 0 {
		return 0
	}
	if r.maxDelay == r.minDelay {
		return r.minDelay
	}
	return r.minDelay + time.Duration(r.rng.Int63n(int64(r.maxDelay-r.minDelay)))
}
