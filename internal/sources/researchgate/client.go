// Package researchgate implements the sources.Source interface by scraping
// ResearchGate's publication search page.
package researchgate

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
	// DefaultBaseURL is the ResearchGate site root.
	DefaultBaseURL = "https://www.researchgate.net"

	// DefaultRateLimit keeps scraping under ResearchGate's blocking threshold.
	DefaultRateLimit = 0.3

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 20 * time.Second

	sourceName = "ResearchGate"
)

// Config holds configuration for the ResearchGate adapter.
type Config struct {
	BaseURL string
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Client implements sources.Source for ResearchGate.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a ResearchGate adapter. A nil httpClient gets a default
// browser-like session.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Source:         domain.SourceTypeResearchGate,
			Timeout:        DefaultTimeout,
			RateLimit:      DefaultRateLimit,
			BurstSize:      DefaultBurstSize,
			MinDelay:       time.Second,
			MaxDelay:       3 * time.Second,
			BrowserHeaders: true,
		})
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Search fetches the publication search page and extracts raw records.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL := c.config.BaseURL + "/search/publication?" + url.Values{
		"q": {params.Query},
	}.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeResearchGate, domain.ErrorClassParse, err.Error(), domain.ErrParse)
	}

	limit := params.Limit()
	records := make([]sources.RawRecord, 0, limit)
	dropped := 0

	doc.Find("div.search-result-item").Each(func(_ int, entry *goquery.Selection) {
		if len(records) >= limit {
			return
		}

		titleElem := entry.Find("a.search-result-title").First()
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
		entry.Find(`div.publication-author-list span[itemprop="name"]`).Each(func(_ int, s *goquery.Selection) {
			if name := strings.TrimSpace(s.Text()); name != "" {
				authors = append(authors, name)
			}
		})

		// Search results carry no abstract; the stats line sometimes
		// includes a citation count.
		records = append(records, sources.RawRecord{
			Title:       title,
			Authors:     authors,
			DateRaw:     strings.TrimSpace(entry.Find("div.publication-meta-date").Text()),
			CitationRaw: strings.TrimSpace(entry.Find("div.publication-meta-stats").Text()),
			URL:         href,
		})
	})

	return &sources.SearchResult{
		Records:  records,
		Dropped:  dropped,
		Source:   domain.SourceTypeResearchGate,
		Duration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeResearchGate
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the adapter is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}
