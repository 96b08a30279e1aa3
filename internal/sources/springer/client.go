// Package springer implements the sources.Source interface by scraping the
// SpringerLink search page. Search results expose no abstracts; those stay
// empty rather than failing the record.
package springer

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
	// DefaultBaseURL is the SpringerLink site root.
	DefaultBaseURL = "https://link.springer.com"

	// DefaultRateLimit is the polite scrape rate.
	DefaultRateLimit = 0.5

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 20 * time.Second

	sourceName = "SpringerLink"
)

// Config holds configuration for the SpringerLink adapter.
type Config struct {
	BaseURL string
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Client implements sources.Source for SpringerLink.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a SpringerLink adapter. A nil httpClient gets a default
// browser-like session.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Source:         domain.SourceTypeSpringer,
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

// Search fetches the SpringerLink search page and extracts raw records.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL := c.config.BaseURL + "/search?" + url.Values{"query": {params.Query}}.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeSpringer, domain.ErrorClassParse, err.Error(), domain.ErrParse)
	}

	limit := params.Limit()
	records := make([]sources.RawRecord, 0, limit)
	dropped := 0

	doc.Find("li.has-cover").Each(func(_ int, entry *goquery.Selection) {
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
		entry.Find("span.authors__name").Each(func(_ int, s *goquery.Selection) {
			if name := strings.TrimSpace(s.Text()); name != "" {
				authors = append(authors, name)
			}
		})

		extra := map[string]string{}
		if ct := strings.TrimSpace(entry.Find("span.content-type").Text()); ct != "" {
			extra["content_type"] = ct
		}

		records = append(records, sources.RawRecord{
			Title:   title,
			Authors: authors,
			DateRaw: strings.TrimSpace(entry.Find("p.meta").Text()),
			URL:     href,
			Extra:   extra,
		})
	})

	return &sources.SearchResult{
		Records:  records,
		Dropped:  dropped,
		Source:   domain.SourceTypeSpringer,
		Duration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSpringer
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the adapter is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}
