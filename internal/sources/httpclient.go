package sources

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"github.com/roody/paperscout/internal/domain"
)

// HTTPClientConfig configures one source's HTTP session.
type HTTPClientConfig struct {
	// Source is the database this session serves; it labels classified errors.
	Source domain.SourceType

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RateLimit is the sustained requests per second.
	RateLimit float64

	// BurstSize is the maximum request burst.
	BurstSize int

	// MinDelay and MaxDelay bound the random politeness pause sampled before
	// each request, on top of the token bucket.
	MinDelay time.Duration
	MaxDelay time.Duration

	// Identities supplies rotated client identity strings. Nil means each
	// request goes out with the first built-in identity.
	Identities *IdentityPool

	// BrowserHeaders adds Accept/Accept-Language headers mimicking a browser.
	// Scrape-backed sources need these; API-backed sources do not.
	BrowserHeaders bool

	// APIKey and APIKeyHeader attach an API credential when the source
	// offers an authenticated tier.
	APIKey       string
	APIKeyHeader string
}

// HTTPClient is the politeness-enforcing HTTP session for one source. It
// waits on the shared rate budget before each request, rotates the client
// identity header, and keeps a cookie jar so cookies and keep-alive survive
// across calls to the same source within one query.
//
// It performs no retries: retry policy belongs to the retry controller so
// attempt counts stay observable. Safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates a session with the given configuration, applying
// defaults for unset fields.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 1
	}
	if cfg.Identities == nil {
		cfg.Identities = NewIdentityPool(nil)
	}

	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize, cfg.MinDelay, cfg.MaxDelay),
		config:      cfg,
	}
}

// Get issues a rate-limited GET and returns the response, or a classified
// error for non-2xx statuses. The caller owns the response body.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewSourceError(c.config.Source, domain.ErrorClassNetwork, err.Error(), err)
	}
	return c.Do(req)
}

// Do executes one request attempt: waits for the rate budget, stamps the
// rotated identity and configured headers, sends, and classifies failures.
// Consumes exactly one unit of the rate budget per call.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// rate.Limiter.Wait reports an unmeetable deadline with its own
		// error value, not context.DeadlineExceeded.
		return nil, domain.NewSourceError(c.config.Source, domain.ErrorClassTimeout, "deadline expired waiting for rate budget", domain.ErrTimeout)
	}

	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		class := domain.Classify(err)
		return nil, domain.NewSourceError(c.config.Source, class, err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainAndClose(resp)
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &domain.RateLimitError{
				Source:     c.config.Source,
				RetryAfter: retryAfter(resp),
			}
		}
		return nil, domain.StatusToError(c.config.Source, resp.StatusCode, resp.Status)
	}

	return resp, nil
}

// Source returns the database this session serves.
func (c *HTTPClient) Source() domain.SourceType {
	return c.config.Source
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.Identities.Next())
	}
	if c.config.BrowserHeaders {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}
}

// retryAfter parses the Retry-After header as seconds or an HTTP date.
// Zero means the source gave no usable hint.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(v, 10, 64); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func drainAndClose(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
	}
}
