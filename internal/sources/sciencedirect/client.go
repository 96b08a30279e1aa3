// Package sciencedirect implements the sources.Source interface by scraping
// the ScienceDirect search page. ScienceDirect gates automated clients behind
// an "unsupported browser" redirect; the adapter detects it and reports the
// source as unauthorized rather than returning the interstitial as results.
package sciencedirect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

const (
	// DefaultBaseURL is the ScienceDirect site root.
	DefaultBaseURL = "https://www.sciencedirect.com"

	// DefaultRateLimit is the polite scrape rate.
	DefaultRateLimit = 0.3

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 20 * time.Second

	sourceName = "ScienceDirect"
)

// Config holds configuration for the ScienceDirect adapter.
type Config struct {
	BaseURL string
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Client implements sources.Source for ScienceDirect.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a ScienceDirect adapter. A nil httpClient gets a default
// browser-like session with generous politeness delays.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Source:         domain.SourceTypeScienceDirect,
			Timeout:        DefaultTimeout,
			RateLimit:      DefaultRateLimit,
			BurstSize:      DefaultBurstSize,
			MinDelay:       2 * time.Second,
			MaxDelay:       4 * time.Second,
			BrowserHeaders: true,
		})
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Search fetches the ScienceDirect search page and extracts raw records.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL := c.config.BaseURL + "/search?" + url.Values{"qs": {params.Query}}.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The browser check redirects to an /unsupported_browser page with a
	// 200 status, so only the final URL reveals the block.
	if resp.Request != nil && strings.Contains(resp.Request.URL.Path, "unsupported_browser") {
		return nil, domain.NewSourceError(domain.SourceTypeScienceDirect, domain.ErrorClassUnauthorized,
			"browser check rejected the client", domain.ErrUnauthorized)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeScienceDirect, domain.ErrorClassParse, err.Error(), domain.ErrParse)
	}

	limit := params.Limit()
	records := make([]sources.RawRecord, 0, limit)
	dropped := 0

	doc.Find("li.ResultItem").Each(func(_ int, entry *goquery.Selection) {
		if len(records) >= limit {
			return
		}

		titleElem := entry.Find("h2 a").First()
		title := strings.TrimSpace(titleElem.Text())
		if title == "" {
			dropped++
			return
		}

		href, _ := titleElem.Attr("href")
		if strings.HasPrefix(href, "/") {
			href = c.config.BaseURL + href
		}

		var authors []string
		entry.Find(".Authors li").Each(func(_ int, s *goquery.Selection) {
			if name := strings.TrimSpace(s.Text()); name != "" {
				authors = append(authors, name)
			}
		})

		extra := map[string]string{}
		if st := strings.TrimSpace(entry.Find(".SubType").Text()); st != "" {
			extra["publication_type"] = st
		}

		records = append(records, sources.RawRecord{
			Title:    title,
			Authors:  authors,
			Abstract: strings.TrimSpace(entry.Find(".ResultText").Text()),
			DateRaw:  strings.TrimSpace(entry.Find(".srctitle-date-fields").Text()),
			URL:      href,
			Extra:    extra,
		})
	})

	return &sources.SearchResult{
		Records:  records,
		Dropped:  dropped,
		Source:   domain.SourceTypeScienceDirect,
		Duration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeScienceDirect
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the adapter is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}
