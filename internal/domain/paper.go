// Package domain provides the canonical data model for the paper aggregator.
package domain

import (
	"strings"
	"time"
	"unicode"
)

// SourceType identifies one of the supported academic databases.
type SourceType string

const (
	SourceTypeGoogleScholar   SourceType = "google_scholar"
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypeResearchGate    SourceType = "researchgate"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypeCORE            SourceType = "core"
	SourceTypeSpringer        SourceType = "springer"
	SourceTypeScienceDirect   SourceType = "sciencedirect"
)

// AllSourceTypes lists every supported source in canonical display order.
var AllSourceTypes = []SourceType{
	SourceTypeGoogleScholar,
	SourceTypeArXiv,
	SourceTypeResearchGate,
	SourceTypeSemanticScholar,
	SourceTypeCORE,
	SourceTypeSpringer,
	SourceTypeScienceDirect,
}

// sourceAliases maps common spellings to canonical source types.
var sourceAliases = map[string]SourceType{
	"google_scholar":   SourceTypeGoogleScholar,
	"googlescholar":    SourceTypeGoogleScholar,
	"scholar":          SourceTypeGoogleScholar,
	"arxiv":            SourceTypeArXiv,
	"researchgate":     SourceTypeResearchGate,
	"research_gate":    SourceTypeResearchGate,
	"semantic_scholar": SourceTypeSemanticScholar,
	"semanticscholar":  SourceTypeSemanticScholar,
	"s2":               SourceTypeSemanticScholar,
	"core":             SourceTypeCORE,
	"springer":         SourceTypeSpringer,
	"springerlink":     SourceTypeSpringer,
	"sciencedirect":    SourceTypeScienceDirect,
	"science_direct":   SourceTypeScienceDirect,
}

// ParseSourceType converts user or config input to a SourceType.
// Matching is case-insensitive and tolerates common alias spellings.
func ParseSourceType(s string) (SourceType, bool) {
	st, ok := sourceAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// IsValid reports whether the source type is one of the supported databases.
func (s SourceType) IsValid() bool {
	for _, st := range AllSourceTypes {
		if s == st {
			return true
		}
	}
	return false
}

// DisplayName returns the human-readable name of the source.
func (s SourceType) DisplayName() string {
	switch s {
	case SourceTypeGoogleScholar:
		return "Google Scholar"
	case SourceTypeArXiv:
		return "arXiv"
	case SourceTypeResearchGate:
		return "ResearchGate"
	case SourceTypeSemanticScholar:
		return "Semantic Scholar"
	case SourceTypeCORE:
		return "CORE"
	case SourceTypeSpringer:
		return "SpringerLink"
	case SourceTypeScienceDirect:
		return "ScienceDirect"
	default:
		return string(s)
	}
}

const (
	// UnknownTitle is the title fallback when a source returns none.
	UnknownTitle = "Untitled"

	// UnknownCitations marks a paper whose source reports no citation count.
	UnknownCitations = -1
)

// Paper is the canonical, source-agnostic record used throughout ranking,
// filtering and export. Every Paper has a non-empty Title and Source; all
// other fields degrade to explicit unknown markers rather than absent values,
// so downstream consumers never need nil checks beyond PublicationDate.
type Paper struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract"`

	// PublicationDate is nil when the source date could not be parsed;
	// PublicationRaw then carries the original string.
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	PublicationRaw  string     `json:"publication_raw,omitempty"`

	// CitationCount is UnknownCitations when the source provides none.
	CitationCount int `json:"citation_count"`

	Source SourceType `json:"source"`
	URL    string     `json:"url,omitempty"`

	// Extra holds source-specific fields that survive normalization
	// (arXiv categories, venue strings, duplicate provenance, ...).
	Extra map[string]string `json:"extra,omitempty"`
}

// HasCitations reports whether the source provided a citation count.
func (p *Paper) HasCitations() bool {
	return p.CitationCount >= 0
}

// HasDate reports whether the publication date was parseable.
func (p *Paper) HasDate() bool {
	return p.PublicationDate != nil
}

// FirstAuthor returns the first author name, or "" for an empty author list.
func (p *Paper) FirstAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0]
}

// DedupKey returns the cross-source merge key: normalized title plus the
// normalized first-author name. Two papers with equal keys are considered
// the same work fetched from different databases.
func (p *Paper) DedupKey() string {
	return normalizeForKey(p.Title) + "|" + normalizeForKey(p.FirstAuthor())
}

// normalizeForKey lowercases and strips everything but letters and digits,
// collapsing runs of other characters to single spaces.
func normalizeForKey(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
			}
			pendingSpace = false
			sb.WriteRune(r)
		} else {
			pendingSpace = true
		}
	}
	return sb.String()
}
