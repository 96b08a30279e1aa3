package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roody/paperscout/internal/domain"
)

func newTestClient(source domain.SourceType) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		Source:    source,
		RateLimit: 1000,
		BurstSize: 1000,
	})
}

func TestHTTPClientGet(t *testing.T) {
	t.Run("returns response on 200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		client := newTestClient(domain.SourceTypeArXiv)
		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("classifies 429 as rate limited with retry hint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(domain.SourceTypeSemanticScholar)
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrRateLimited))

		var rlErr *domain.RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
	})

	t.Run("classifies 403 as unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := newTestClient(domain.SourceTypeResearchGate)
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
		assert.Equal(t, domain.ErrorClassUnauthorized, domain.Classify(err))
	})

	t.Run("classifies connection failure as network", func(t *testing.T) {
		client := newTestClient(domain.SourceTypeCORE)
		_, err := client.Get(context.Background(), "http://127.0.0.1:1")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorClassNetwork, domain.Classify(err))
	})

	t.Run("rotates identity across requests", func(t *testing.T) {
		var mu sync.Mutex
		seen := map[string]bool{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen[r.Header.Get("User-Agent")] = true
			mu.Unlock()
		}))
		defer server.Close()

		client := NewHTTPClient(HTTPClientConfig{
			Source:     domain.SourceTypeGoogleScholar,
			RateLimit:  1000,
			BurstSize:  1000,
			Identities: NewIdentityPool([]string{"agent-a", "agent-b"}),
		})
		for i := 0; i < 4; i++ {
			resp, err := client.Get(context.Background(), server.URL)
			require.NoError(t, err)
			resp.Body.Close()
		}
		assert.True(t, seen["agent-a"])
		assert.True(t, seen["agent-b"])
		assert.Len(t, seen, 2)
	})

	t.Run("preserves session cookies across calls", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie("session"); err != nil {
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := newTestClient(domain.SourceTypeScienceDirect)

		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		resp, err = client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("sends browser headers when configured", func(t *testing.T) {
		var accept string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept = r.Header.Get("Accept")
		}))
		defer server.Close()

		client := NewHTTPClient(HTTPClientConfig{
			Source:         domain.SourceTypeSpringer,
			RateLimit:      1000,
			BurstSize:      1000,
			BrowserHeaders: true,
		})
		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Contains(t, accept, "text/html")
	})

	t.Run("deadline interrupts rate budget wait", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{
			Source:    domain.SourceTypeCORE,
			RateLimit: 0.001, // effectively one request per ~17 minutes
			BurstSize: 1,
		})
		// Consume the single burst token.
		require.True(t, client.rateLimiter.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := client.Get(ctx, "http://example.invalid")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrTimeout))
		assert.Equal(t, domain.ErrorClassTimeout, domain.Classify(err))
	})

	t.Run("unmeetable deadline on rate budget wait is a timeout", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{
			Source:    domain.SourceTypeCORE,
			RateLimit: 0.001,
			BurstSize: 1,
		})
		require.True(t, client.rateLimiter.Allow())

		// The next token is ~17 minutes away, so the limiter rejects the
		// wait up front instead of returning context.DeadlineExceeded.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := client.Get(ctx, "http://example.invalid")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrTimeout))
		assert.Equal(t, domain.ErrorClassTimeout, domain.Classify(err))
		assert.False(t, domain.Classify(err).Retryable())
	})

	t.Run("cancellation during rate budget wait is not a timeout", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{
			Source:    domain.SourceTypeCORE,
			RateLimit: 0.001,
			BurstSize: 1,
		})
		require.True(t, client.rateLimiter.Allow())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Get(ctx, "http://example.invalid")
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestIdentityPool(t *testing.T) {
	t.Run("round robin", func(t *testing.T) {
		pool := NewIdentityPool([]string{"a", "b", "c"})
		assert.Equal(t, "a", pool.Next())
		assert.Equal(t, "b", pool.Next())
		assert.Equal(t, "c", pool.Next())
		assert.Equal(t, "a", pool.Next())
	})

	t.Run("falls back to built-in pool", func(t *testing.T) {
		pool := NewIdentityPool(nil)
		assert.Greater(t, pool.Size(), 0)
		assert.NotEmpty(t, pool.Next())
	})

	t.Run("no identity reuse under concurrency", func(t *testing.T) {
		pool := NewIdentityPool([]string{"a", "b", "c", "d"})
		const n = 400
		counts := make([]int32, 4)
		var wg sync.WaitGroup
		var mu sync.Mutex
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := pool.Next()
				mu.Lock()
				switch id {
				case "a":
					counts[0]++
				case "b":
					counts[1]++
				case "c":
					counts[2]++
				case "d":
					counts[3]++
				}
				mu.Unlock()
			}()
		}
		wg.Wait()
		// Round-robin over an atomic counter distributes exactly evenly.
		for _, c := range counts {
			assert.EqualValues(t, n/4, c)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("wait respects context cancellation", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 1, 0, 0)
		require.True(t, rl.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := rl.Wait(ctx)
		assert.Error(t, err)
	})

	t.Run("politeness delay is within bounds", func(t *testing.T) {
		rl := NewRateLimiter(1000, 1000, 5*time.Millisecond, 15*time.Millisecond)
		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	})

	t.Run("zero delay config skips pause", func(t *testing.T) {
		rl := NewRateLimiter(1000, 1000, 0, 0)
		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		assert.Less(t, time.Since(start), 5*time.Millisecond)
	})
}
