// Package sources provides the per-database adapter contract and the shared
// politeness machinery (rate limiting, identity rotation, session reuse)
// used by every adapter.
//
// Each academic database implements the Source interface. Adapters own their
// extraction logic only: they return unnormalized RawRecord values, and the
// normalize package converts those into canonical domain.Paper records.
//
// Example usage:
//
//	src := arxiv.New(arxiv.Config{Enabled: true}, httpClient)
//	res, err := src.Search(ctx, sources.SearchParams{Query: "graph neural networks", MaxResults: 10})
package sources

import (
	"context"
	"time"

	"github.com/roody/paperscout/internal/domain"
)

// DefaultMaxResults is the per-source result limit applied when a search
// request does not specify one.
const DefaultMaxResults = 10

// SearchParams defines the parameters for one source query.
type SearchParams struct {
	// Query is the search query string (required).
	Query string

	// MaxResults caps the number of raw records returned. Zero means
	// DefaultMaxResults; sources may enforce smaller hard limits.
	MaxResults int

	// DateFrom filters papers published on or after this date, where the
	// source supports server-side date filtering. Nil applies no bound.
	DateFrom *time.Time

	// DateTo filters papers published on or before this date. Nil applies
	// no bound.
	DateTo *time.Time
}

// Limit returns the effective result cap for these params.
func (p SearchParams) Limit() int {
	if p.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return p.MaxResults
}

// RawRecord is the source-specific, unnormalized representation of one paper
// as extracted from an API response or parsed HTML. Scrape-backed adapters
// fill whatever fields the markup yields; fields they cannot extract stay
// empty and the normalizer degrades them to explicit unknown markers.
type RawRecord struct {
	Title       string
	Authors     []string
	Abstract    string
	DateRaw     string
	CitationRaw string
	URL         string

	// Extra carries source-specific fields (categories, venue, identifiers)
	// preserved verbatim through normalization.
	Extra map[string]string
}

// SearchResult contains the raw outcome of one adapter invocation.
type SearchResult struct {
	// Records are the extracted raw records, in the source's own order
	// (assumed relevance-ranked).
	Records []RawRecord

	// TotalResults is the source-reported total match count when the source
	// exposes one; zero otherwise.
	TotalResults int

	// Dropped counts entries discarded because no title was extractable.
	Dropped int

	// Source identifies which database produced these records.
	Source domain.SourceType

	// Duration is the fetch-and-extract wall time.
	Duration time.Duration
}

// Source is the per-database fetch-and-extract unit. Implementations must be
// safe for concurrent use; the aggregator invokes them from worker goroutines.
type Source interface {
	// Search queries the database for records matching params. It returns at
	// most params.Limit() raw records or a classified error (see
	// domain.Classify). Implementations must respect context cancellation
	// and consume the shared rate budget before each request attempt.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// SourceType returns the database identifier for attribution and routing.
	SourceType() domain.SourceType

	// Name returns the human-readable source name for logs and display.
	Name() string

	// IsEnabled reports whether the source is available for searches. A
	// source may be disabled by configuration or a missing API key.
	IsEnabled() bool
}
