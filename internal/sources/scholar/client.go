// Package scholar implements the sources.Source interface for Google
// Scholar. Scholar has no public API: the adapter scrapes the results page
// with browser-like headers, or routes through SerpAPI when an API key is
// configured (SerpAPI absorbs Scholar's anti-scraping measures).
//
// Scraping Scholar is the most fragile path in the system. Records degrade
// field-by-field when markup changes; a record is dropped only when no title
// can be extracted, and a captcha interstitial is reported as rate limiting.
package scholar

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
	// DefaultBaseURL is the Scholar search page.
	DefaultBaseURL = "https://scholar.google.com"

	// SerpAPIBaseURL is the SerpAPI endpoint used when an API key is set.
	SerpAPIBaseURL = "https://serpapi.com/search"

	// DefaultRateLimit keeps scraping well under Scholar's blocking
	// threshold.
	DefaultRateLimit = 0.5

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 20 * time.Second

	sourceName = "Google Scholar"
)

// Config holds configuration for the Google Scholar adapter.
type Config struct {
	BaseURL string

	// SerpAPIKey switches the adapter from direct scraping to the SerpAPI
	// JSON endpoint.
	SerpAPIKey string

	// SerpAPIBaseURL overrides the SerpAPI endpoint, for tests.
	SerpAPIBaseURL string

	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.SerpAPIBaseURL == "" {
		c.SerpAPIBaseURL = SerpAPIBaseURL
	}
}

// Client implements sources.Source for Google Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a Google Scholar adapter. A nil httpClient gets a default
// browser-like session.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Source:         domain.SourceTypeGoogleScholar,
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

// Search fetches one Scholar results page and extracts raw records.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	if c.config.SerpAPIKey != "" {
		return c.searchSerpAPI(ctx, params)
	}
	return c.searchScrape(ctx, params)
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeGoogleScholar
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the adapter is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) searchScrape(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL := c.config.BaseURL + "/scholar?" + url.Values{
		"q":  {params.Query},
		"hl": {"en"},
	}.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeGoogleScholar, domain.ErrorClassParse, err.Error(), domain.ErrParse)
	}

	// Scholar answers automated traffic with a captcha interstitial instead
	// of HTTP 429.
	if doc.Find("#gs_captcha_ccl, form#captcha-form").Length() > 0 {
		return nil, &domain.RateLimitError{Source: domain.SourceTypeGoogleScholar}
	}

	limit := params.Limit()
	records := make([]sources.RawRecord, 0, limit)
	dropped := 0

	doc.Find("div.gs_r.gs_or, div.gs_ri").Each(func(_ int, entry *goquery.Selection) {
		if len(records) >= limit {
			return
		}

		titleElem := entry.Find("h3.gs_rt a").First()
		title := strings.TrimSpace(titleElem.Text())
		if title == "" {
			// Citations-only entries have no linked title.
			title = strings.TrimSpace(entry.Find("h3.gs_rt").Text())
			title = strings.TrimPrefix(title, "[CITATION] ")
		}
		if title == "" {
			dropped++
			return
		}
		href, _ := titleElem.Attr("href")

		// The gs_a line packs authors, venue and year:
		// "J Doe, A Smith - Nature, 2021 - nature.com"
		byline := strings.TrimSpace(entry.Find("div.gs_a").Text())
		authorsPart, datePart := splitByline(byline)

		citationRaw := ""
		entry.Find("div.gs_fl a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if text := strings.TrimSpace(a.Text()); strings.HasPrefix(text, "Cited by") {
				citationRaw = text
				return false
			}
			return true
		})

		records = append(records, sources.RawRecord{
			Title:       title,
			Authors:     authorsFromByline(authorsPart),
			Abstract:    strings.TrimSpace(entry.Find("div.gs_rs").Text()),
			DateRaw:     datePart,
			CitationRaw: citationRaw,
			URL:         href,
			Extra:       map[string]string{"byline": byline},
		})
	})

	return &sources.SearchResult{
		Records:  records,
		Dropped:  dropped,
		Source:   domain.SourceTypeGoogleScholar,
		Duration: time.Since(start),
	}, nil
}

// splitByline separates the author list from the venue/year tail of a
// Scholar gs_a line.
func splitByline(byline string) (authors, date string) {
	parts := strings.Split(byline, " - ")
	authors = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		date = strings.TrimSpace(parts[1])
	}
	return authors, date
}

// authorsFromByline splits "J Doe, A Smith" into names, dropping Scholar's
// ellipsis marker for truncated lists.
func authorsFromByline(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" || name == "…" || name == "..." {
			continue
		}
		out = append(out, name)
	}
	return out
}

// paginationStep is SerpAPI's fixed Scholar page size.
const paginationStep = 10

func (c *Client) searchSerpAPI(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()
	limit := params.Limit()

	records := make([]sources.RawRecord, 0, limit)
	total := 0
	for offset := 0; len(records) < limit; offset += paginationStep {
		page, pageTotal, err := c.fetchSerpAPIPage(ctx, params.Query, offset)
		if err != nil {
			return nil, err
		}
		if pageTotal > 0 {
			total = pageTotal
		}
		if len(page) == 0 {
			break
		}
		for _, rec := range page {
			if len(records) >= limit {
				break
			}
			records = append(records, rec)
		}
	}

	return &sources.SearchResult{
		Records:      records,
		TotalResults: total,
		Source:       domain.SourceTypeGoogleScholar,
		Duration:     time.Since(start),
	}, nil
}
