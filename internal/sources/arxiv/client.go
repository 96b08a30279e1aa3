// Package arxiv implements the sources.Source interface for the arXiv API.
// arXiv serves a structured Atom XML feed, so extraction failures are rare;
// most errors here are network-level.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

const (
	// DefaultBaseURL is the arXiv query API endpoint.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit honors arXiv's polite-access guidance.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from an entry URL like
// "http://arxiv.org/abs/2301.12345v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv adapter.
type Config struct {
	BaseURL string
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Client implements sources.Source for arXiv.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates an arXiv adapter. A nil httpClient gets a default session with
// the source's polite rate limits.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Source:    domain.SourceTypeArXiv,
			Timeout:   DefaultTimeout,
			RateLimit: DefaultRateLimit,
			BurstSize: DefaultBurstSize,
		})
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Search queries the arXiv API for papers matching params.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeArXiv, domain.ErrorClassParse, err.Error(), domain.ErrParse)
	}

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var f feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&f); err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeArXiv, domain.ErrorClassParse,
			fmt.Sprintf("decoding Atom feed: %v", err), domain.ErrParse)
	}

	limit := params.Limit()
	records := make([]sources.RawRecord, 0, len(f.Entries))
	dropped := 0
	for i := range f.Entries {
		if len(records) >= limit {
			break
		}
		rec, ok := entryToRecord(&f.Entries[i])
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	return &sources.SearchResult{
		Records:      records,
		TotalResults: f.TotalResults,
		Dropped:      dropped,
		Source:       domain.SourceTypeArXiv,
		Duration:     time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the adapter is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the arXiv query URL, including a submittedDate
// range filter when the caller set date bounds.
func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	searchQuery := "all:" + params.Query
	if params.DateFrom != nil || params.DateTo != nil {
		searchQuery += " AND " + dateFilter(params.DateFrom, params.DateTo)
	}

	q := url.Values{}
	q.Set("search_query", searchQuery)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(params.Limit()))
	baseURL.RawQuery = q.Encode()
	return baseURL.String(), nil
}

func dateFilter(from, to *time.Time) string {
	fromStr, toStr := "*", "*"
	if from != nil {
		fromStr = from.Format("20060102") + "0000"
	}
	if to != nil {
		toStr = to.Format("20060102") + "2359"
	}
	return fmt.Sprintf("submittedDate:[%s TO %s]", fromStr, toStr)
}

// entryToRecord extracts one raw record from an Atom entry. Entries without
// a title are dropped; everything else degrades to empty fields.
func entryToRecord(e *entry) (sources.RawRecord, bool) {
	if strings.TrimSpace(e.Title) == "" {
		return sources.RawRecord{}, false
	}

	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	// Prefer the PDF link; fall back to the abstract page.
	recordURL := e.ID
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			recordURL = l.Href
			break
		}
	}

	extra := map[string]string{}
	if id := extractArXivID(e.ID); id != "" {
		extra["arxiv_id"] = id
	}
	if cats := categoryTerms(e.Categories); cats != "" {
		extra["categories"] = cats
	}
	if doi := strings.TrimSpace(e.DOI); doi != "" {
		extra["doi"] = doi
	}
	if jr := strings.TrimSpace(e.JournalRef); jr != "" {
		extra["journal_ref"] = jr
	}

	return sources.RawRecord{
		Title:    e.Title,
		Authors:  authors,
		Abstract: e.Summary,
		DateRaw:  strings.TrimSpace(e.Published),
		URL:      recordURL,
		Extra:    extra,
	}, true
}

func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

func categoryTerms(cats []category) string {
	terms := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.Term != "" {
			terms = append(terms, c.Term)
		}
	}
	return strings.Join(terms, ",")
}
