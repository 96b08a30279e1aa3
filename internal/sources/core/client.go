// Package core implements the sources.Source interface by scraping the CORE
// (core.ac.uk) search page.
package core

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
	// DefaultBaseURL is the CORE site root.
	DefaultBaseURL = "https://core.ac.uk"

	// DefaultRateLimit is the polite scrape rate.
	DefaultRateLimit = 0.5

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 20 * time.Second

	sourceName = "CORE"
)

// Config holds configuration for the CORE adapter.
type Config struct {
	BaseURL string
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Client implements sources.Source for CORE.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a CORE adapter. A nil httpClient gets a default browser-like
// session.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Source:         domain.SourceTypeCORE,
			Timeout:        DefaultTimeout,
			RateLimit:      DefaultRateLimit,
			BurstSize:      DefaultBurstSize,
			MinDelay:       time.Second,
			MaxDelay:       2 * time.Second,
			BrowserHeaders: true,
		})
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Search fetches the CORE search page and extracts raw records.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL := c.config.BaseURL + "/search?" + url.Values{"q": {params.Query}}.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeCORE, domain.ErrorClassParse, err.Error(), domain.ErrParse)
	}

	limit := params.Limit()
	records := make([]sources.RawRecord, 0, limit)
	dropped := 0

	doc.Find("article.search-result").Each(func(_ int, entry *goquery.Selection) {
		if len(records) >= limit {
			return
		}

		titleElem := entry.Find("h3.title a").First()
		title := strings.TrimSpace(titleElem.Text())
		if title == "" {
			dropped++
			return
		}

		href, _ := titleElem.Attr("href")
		if strings.HasPrefix(href, "/") {
			href = c.config.BaseURL + href
		}

		records = append(records, sources.RawRecord{
			Title:    title,
			Authors:  splitAuthors(entry.Find("div.authors").Text()),
			Abstract: strings.TrimSpace(entry.Find("div.description").Text()),
			DateRaw:  strings.TrimSpace(entry.Find("div.publisher").Text()),
			URL:      href,
		})
	})

	return &sources.SearchResult{
		Records:  records,
		Dropped:  dropped,
		Source:   domain.SourceTypeCORE,
		Duration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCORE
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the adapter is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func splitAuthors(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
