// Package semanticscholar implements the sources.Source interface for the
// Semantic Scholar Graph API.
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

const (
	// DefaultBaseURL is the Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit matches the unauthenticated shared pool; an API key
	// raises it.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	// apiKeyHeader is the authentication header name.
	apiKeyHeader = "x-api-key"

	// paperFields is the field list requested from the API.
	paperFields = "paperId,externalIds,title,abstract,year,publicationDate,venue,url,authors,citationCount"

	sourceName = "Semantic Scholar"
)

// Config holds configuration for the Semantic Scholar adapter.
type Config struct {
	BaseURL string
	APIKey  string
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Client implements sources.Source for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a Semantic Scholar adapter. A nil httpClient gets a default
// session with the source's rate limits and the configured API key.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Source:       domain.SourceTypeSemanticScholar,
			Timeout:      DefaultTimeout,
			RateLimit:    DefaultRateLimit,
			BurstSize:    DefaultBurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Search queries the Graph API paper search endpoint.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeSemanticScholar, domain.ErrorClassParse, err.Error(), domain.ErrParse)
	}

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&sr); err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeSemanticScholar, domain.ErrorClassParse,
			fmt.Sprintf("decoding response: %v", err), domain.ErrParse)
	}

	limit := params.Limit()
	records := make([]sources.RawRecord, 0, len(sr.Data))
	dropped := 0
	for i := range sr.Data {
		if len(records) >= limit {
			break
		}
		rec, ok := resultToRecord(&sr.Data[i])
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	return &sources.SearchResult{
		Records:      records,
		TotalResults: sr.Total,
		Dropped:      dropped,
		Source:       domain.SourceTypeSemanticScholar,
		Duration:     time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the adapter is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	searchURL := baseURL.JoinPath("paper", "search")

	q := searchURL.Query()
	q.Set("query", params.Query)
	q.Set("fields", paperFields)
	q.Set("limit", strconv.Itoa(params.Limit()))
	if params.DateFrom != nil || params.DateTo != nil {
		q.Set("publicationDateOrYear", dateRange(params.DateFrom, params.DateTo))
	}
	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// dateRange renders the API's "from:to" publication date filter.
func dateRange(from, to *time.Time) string {
	var fromStr, toStr string
	if from != nil {
		fromStr = from.Format("2006-01-02")
	}
	if to != nil {
		toStr = to.Format("2006-01-02")
	}
	return fromStr + ":" + toStr
}

// resultToRecord extracts one raw record. Papers without a title are dropped.
func resultToRecord(r *paperResult) (sources.RawRecord, bool) {
	if r.Title == "" {
		return sources.RawRecord{}, false
	}

	authors := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	dateRaw := r.PublicationDate
	if dateRaw == "" && r.Year > 0 {
		dateRaw = strconv.Itoa(r.Year)
	}

	citationRaw := ""
	if r.CitationCount != nil {
		citationRaw = strconv.Itoa(*r.CitationCount)
	}

	extra := map[string]string{}
	if r.PaperID != "" {
		extra["s2_id"] = r.PaperID
	}
	if r.Venue != "" {
		extra["venue"] = r.Venue
	}
	if r.ExternalIDs != nil {
		if r.ExternalIDs.DOI != "" {
			extra["doi"] = r.ExternalIDs.DOI
		}
		if r.ExternalIDs.ArXiv != "" {
			extra["arxiv_id"] = r.ExternalIDs.ArXiv
		}
	}

	recordURL := r.URL
	if recordURL == "" && r.PaperID != "" {
		recordURL = "https://www.semanticscholar.org/paper/" + r.PaperID
	}

	return sources.RawRecord{
		Title:       r.Title,
		Authors:     authors,
		Abstract:    r.Abstract,
		DateRaw:     dateRaw,
		CitationRaw: citationRaw,
		URL:         recordURL,
		Extra:       extra,
	}, true
}
