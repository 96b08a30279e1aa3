// Package normalize converts source-specific raw records into canonical
// domain.Paper values. Conversion is a pure per-record function: missing or
// unparseable fields map to the explicit unknown markers, never to absent
// values, so downstream ranking and export stay branch-free.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

// dateFormats are tried in order against source date strings. Sources emit
// anything from RFC3339 timestamps (arXiv) to bare years (scraped pages).
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02 January 2006",
	"2 January 2006",
	"January 2, 2006",
	"January 2006",
	"Jan 2, 2006",
	"Jan 2006",
	"2006/01/02",
	"01/02/2006",
	"2006",
}

// citedByRegex extracts counts from phrasings like "Cited by 1,234".
var citedByRegex = regexp.MustCompile(`(?i)cited\s+by[:\s]+([\d,]+)`)

// yearRegex finds a plausible publication year inside free-form date text.
var yearRegex = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// Record converts one raw record from the given source into a canonical
// Paper. The result always has a non-empty Title (falling back to
// domain.UnknownTitle) and Source; citation counts default to
// domain.UnknownCitations and unparseable dates are kept verbatim in
// PublicationRaw.
func Record(source domain.SourceType, raw sources.RawRecord) domain.Paper {
	title := Whitespace(raw.Title)
	if title == "" {
		title = domain.UnknownTitle
	}

	p := domain.Paper{
		Title:         title,
		Authors:       cleanAuthors(raw.Authors),
		Abstract:      Whitespace(raw.Abstract),
		CitationCount: Citations(raw.CitationRaw),
		Source:        source,
		URL:           strings.TrimSpace(raw.URL),
	}

	if dateRaw := strings.TrimSpace(raw.DateRaw); dateRaw != "" {
		if t, ok := Date(dateRaw); ok {
			p.PublicationDate = &t
		} else {
			p.PublicationRaw = dateRaw
		}
	}

	if len(raw.Extra) > 0 {
		p.Extra = make(map[string]string, len(raw.Extra))
		for k, v := range raw.Extra {
			p.Extra[k] = v
		}
	}

	return p
}

// Records converts a batch of raw records, preserving source order.
func Records(source domain.SourceType, raws []sources.RawRecord) []domain.Paper {
	papers := make([]domain.Paper, len(raws))
	for i, raw := range raws {
		papers[i] = Record(source, raw)
	}
	return papers
}

// Date parses a source date string against the known formats, falling back
// to extracting a bare year from free-form text. Returns false when nothing
// plausible is found; the caller then keeps the raw string.
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if m := yearRegex.FindString(s); m != "" {
		year, _ := strconv.Atoi(m)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Citations extracts a non-negative citation count from source-specific
// phrasing ("Cited by 1,234", a bare integer). Returns
// domain.UnknownCitations when the source provides none.
func Citations(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.UnknownCitations
	}
	if m := citedByRegex.FindStringSubmatch(s); len(m) == 2 {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil && n >= 0 {
			return n
		}
	}
	if n, err := strconv.Atoi(strings.ReplaceAll(s, ",", "")); err == nil && n >= 0 {
		return n
	}
	return domain.UnknownCitations
}

// Whitespace trims and collapses runs of whitespace, including the newlines
// arXiv embeds inside titles and abstracts.
func Whitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanAuthors trims each name and drops empties, preserving order.
func cleanAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		if name := Whitespace(a); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// SplitAuthorList splits a single comma-separated author string, as scraped
// pages often provide, into individual names.
func SplitAuthorList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := Whitespace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}
