package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roody/paperscout/internal/domain"
)

func datePtr(y int) *time.Time {
	d := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func paper(title string, src domain.SourceType, year, citations int) domain.Paper {
	p := domain.Paper{Title: title, Source: src, CitationCount: citations, URL: "https://example.org/" + title}
	if year > 0 {
		p.PublicationDate = datePtr(year)
	}
	return p
}

func titles(papers []domain.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.Title
	}
	return out
}

func TestApplySorting(t *testing.T) {
	papers := []domain.Paper{
		paper("a", domain.SourceTypeArXiv, 2019, 10),
		paper("b", domain.SourceTypeGoogleScholar, 2023, domain.UnknownCitations),
		paper("c", domain.SourceTypeCORE, 0, 500),
		paper("d", domain.SourceTypeArXiv, 2021, 50),
	}

	t.Run("relevance keeps insertion order", func(t *testing.T) {
		got := Apply(papers, Options{SortBy: SortRelevance})
		assert.Equal(t, []string{"a", "b", "c", "d"}, titles(got))
	})

	t.Run("date descending, undated last", func(t *testing.T) {
		got := Apply(papers, Options{SortBy: SortDate})
		assert.Equal(t, []string{"b", "d", "a", "c"}, titles(got))
	})

	t.Run("date ascending still puts undated last", func(t *testing.T) {
		got := Apply(papers, Options{SortBy: SortDate, Ascending: true})
		assert.Equal(t, []string{"a", "d", "b", "c"}, titles(got))
	})

	t.Run("citations descending, unknown last", func(t *testing.T) {
		got := Apply(papers, Options{SortBy: SortCitations})
		assert.Equal(t, []string{"c", "d", "a", "b"}, titles(got))
	})

	t.Run("input is not mutated", func(t *testing.T) {
		_ = Apply(papers, Options{SortBy: SortCitations})
		assert.Equal(t, []string{"a", "b", "c", "d"}, titles(papers))
	})

	t.Run("stable for equal keys", func(t *testing.T) {
		equal := []domain.Paper{
			paper("x", domain.SourceTypeArXiv, 2020, 7),
			paper("y", domain.SourceTypeCORE, 2020, 7),
			paper("z", domain.SourceTypeGoogleScholar, 2020, 7),
		}
		got := Apply(equal, Options{SortBy: SortCitations})
		assert.Equal(t, []string{"x", "y", "z"}, titles(got))
	})
}

func TestApplyFilters(t *testing.T) {
	papers := []domain.Paper{
		paper("a", domain.SourceTypeArXiv, 2019, 10),
		paper("b", domain.SourceTypeGoogleScholar, 2023, domain.UnknownCitations),
		paper("c", domain.SourceTypeCORE, 0, 500),
	}
	papers[2].URL = ""

	t.Run("source subset", func(t *testing.T) {
		got := Apply(papers, Options{Sources: []domain.SourceType{domain.SourceTypeArXiv}})
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].Title)
	})

	t.Run("date range excludes undated", func(t *testing.T) {
		got := Apply(papers, Options{DateFrom: datePtr(2020)})
		assert.Equal(t, []string{"b"}, titles(got))
	})

	t.Run("date upper bound", func(t *testing.T) {
		got := Apply(papers, Options{DateTo: datePtr(2020)})
		assert.Equal(t, []string{"a"}, titles(got))
	})

	t.Run("require url", func(t *testing.T) {
		got := Apply(papers, Options{RequireURL: true})
		assert.Equal(t, []string{"a", "b"}, titles(got))
	})

	t.Run("require citations", func(t *testing.T) {
		got := Apply(papers, Options{RequireCitations: true})
		assert.Equal(t, []string{"a", "c"}, titles(got))
	})
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortDate, ParseSortKey("date"))
	assert.Equal(t, SortCitations, ParseSortKey("citations"))
	assert.Equal(t, SortRelevance, ParseSortKey("relevance"))
	assert.Equal(t, SortRelevance, ParseSortKey(""))
	assert.Equal(t, SortRelevance, ParseSortKey("bogus"))
}
