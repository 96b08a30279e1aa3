// Package rank orders and filters merged paper collections for display and
// export. Sorting is stable, so papers with equal keys keep their fetch
// (relevance) order, and papers with unknown sort keys always sink to the
// end regardless of direction.
package rank

import (
	"sort"
	"time"

	"github.com/roody/paperscout/internal/domain"
)

// SortKey selects the ordering of a result set.
type SortKey string

const (
	// SortRelevance keeps the merged fetch order. Sources return results
	// relevance-ranked, so insertion order is the relevance order.
	SortRelevance SortKey = "relevance"

	// SortDate orders by publication date.
	SortDate SortKey = "date"

	// SortCitations orders by citation count.
	SortCitations SortKey = "citations"
)

// ParseSortKey maps a user-supplied string onto a SortKey. Unknown values
// fall back to relevance.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortDate:
		return SortDate
	case SortCitations:
		return SortCitations
	default:
		return SortRelevance
	}
}

// Options controls filtering and ordering. The zero value applies no filters
// and keeps relevance order.
type Options struct {
	// SortBy selects the ordering. Empty means relevance.
	SortBy SortKey

	// Ascending reverses the default descending direction for date and
	// citation sorts. Ignored for relevance.
	Ascending bool

	// Sources keeps only papers from the listed sources. Empty keeps all.
	Sources []domain.SourceType

	// DateFrom and DateTo bound publication dates client-side. Papers
	// without a parsed date are excluded when either bound is set.
	DateFrom *time.Time
	DateTo   *time.Time

	// RequireURL drops papers without a link.
	RequireURL bool

	// RequireCitations drops papers whose citation count is unknown.
	RequireCitations bool
}

// Apply filters then sorts a copy of the papers. The input slice is never
// mutated.
func Apply(papers []domain.Paper, opts Options) []domain.Paper {
	out := filter(papers, opts)

	switch opts.SortBy {
	case SortDate:
		sortByDate(out, opts.Ascending)
	case SortCitations:
		sortByCitations(out, opts.Ascending)
	default:
		// Relevance is insertion order; nothing to do.
	}
	return out
}

func filter(papers []domain.Paper, opts Options) []domain.Paper {
	var allowed map[domain.SourceType]bool
	if len(opts.Sources) > 0 {
		allowed = make(map[domain.SourceType]bool, len(opts.Sources))
		for _, s := range opts.Sources {
			allowed[s] = true
		}
	}

	out := make([]domain.Paper, 0, len(papers))
	for _, p := range papers {
		if allowed != nil && !allowed[p.Source] {
			continue
		}
		if opts.RequireURL && p.URL == "" {
			continue
		}
		if opts.RequireCitations && !p.HasCitations() {
			continue
		}
		if opts.DateFrom != nil || opts.DateTo != nil {
			if !p.HasDate() {
				continue
			}
			if opts.DateFrom != nil && p.PublicationDate.Before(*opts.DateFrom) {
				continue
			}
			if opts.DateTo != nil && p.PublicationDate.After(*opts.DateTo) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func sortByDate(papers []domain.Paper, ascending bool) {
	sort.SliceStable(papers, func(i, j int) bool {
		a, b := &papers[i], &papers[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		if !a.HasDate() {
			return false
		}
		if ascending {
			return a.PublicationDate.Before(*b.PublicationDate)
		}
		return a.PublicationDate.After(*b.PublicationDate)
	})
}

func sortByCitations(papers []domain.Paper, ascending bool) {
	sort.SliceStable(papers, func(i, j int) bool {
		a, b := &papers[i], &papers[j]
		if a.HasCitations() != b.HasCitations() {
			return a.HasCitations()
		}
		if !a.HasCitations() {
			return false
		}
		if ascending {
			return a.CitationCount < b.CitationCount
		}
		return a.CitationCount > b.CitationCount
	})
}
