// Package aggregate fans a search query out to the registered paper sources,
// retries transient failures, and merges per-source results into a single
// report that preserves the caller's source ordering.
package aggregate

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

const (
	// DefaultMaxAttempts bounds how many times a source search is tried.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the backoff delay before the first retry.
	DefaultBaseDelay = 500 * time.Millisecond

	// DefaultMaxDelay caps the backoff delay between attempts.
	DefaultMaxDelay = 10 * time.Second
)

// RetryConfig controls retry behavior for per-source searches.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the backoff delay before the first retry. It doubles
	// on every further retry.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
}

// Retryer runs source searches with bounded retries. Only network and
// rate-limit failures are retried; parse and authorization failures are
// permanent and fail on the first attempt.
type Retryer struct {
	config RetryConfig
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRetryer creates a Retryer.
func NewRetryer(cfg RetryConfig, logger zerolog.Logger) *Retryer {
	cfg.applyDefaults()
	return &Retryer{
		config: cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Search runs source.Search until it succeeds, exhausts the attempt budget,
// fails permanently, or the context ends. It returns the result of the last
// attempt plus how many attempts were made.
func (r *Retryer) Search(ctx context.Context, source sources.Source, params sources.SearchParams) (*sources.SearchResult, int, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result, err := source.Search(ctx, params)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		class := domain.Classify(err)
		if !class.Retryable() {
			r.logger.Debug().
				Str("source", string(source.SourceType())).
				Str("error_class", string(class)).
				Int("attempt", attempt).
				Msg("permanent failure, not retrying")
			return nil, attempt, err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt, err)
		r.logger.Debug().
			Str("source", string(source.SourceType())).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("retrying source search")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, r.config.MaxAttempts, lastErr
}

// delayFor computes the backoff before the retry following the given attempt.
// The base doubles per attempt with up to 25% jitter added, capped at
// MaxDelay. A Retry-After hint from the source takes precedence when longer.
func (r *Retryer) delayFor(attempt int, err error) time.Duration {
	delay := r.config.BaseDelay << (attempt - 1)
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	r.mu.Lock()
	jitter := time.Duration(r.rng.Int63n(int64(delay)/4 + 1))
	r.mu.Unlock()
	delay += jitter

	var rle *domain.RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > delay {
		delay = rle.RetryAfter
	}
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}
