// Package export serializes merged paper collections to CSV and XLSX, the
// two formats the result table can be downloaded as. Both writers emit the
// same column set, and both formats round-trip: a written file reads back
// into equivalent papers (Extra fields are not exported).
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/roody/paperscout/internal/domain"
)

// Headers is the exported column set, in output order.
var Headers = []string{"title", "authors", "abstract", "publication_date", "citation_count", "source", "url"}

const (
	// authorSeparator joins the author list into a single cell.
	authorSeparator = "; "

	// dateLayout is the cell format for parsed publication dates.
	dateLayout = "2006-01-02"
)

// row flattens a paper into one exported record.
func row(p *domain.Paper) []string {
	date := p.PublicationRaw
	if p.HasDate() {
		date = p.PublicationDate.Format(dateLayout)
	}

	citations := ""
	if p.HasCitations() {
		citations = strconv.Itoa(p.CitationCount)
	}

	return []string{
		p.Title,
		strings.Join(p.Authors, authorSeparator),
		p.Abstract,
		date,
		citations,
		string(p.Source),
		p.URL,
	}
}

// fromRow rebuilds a paper from one exported record. Cells that held unknown
// markers come back as the same markers.
func fromRow(cells []string) domain.Paper {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}

	p := domain.Paper{
		Title:         get(0),
		Abstract:      get(2),
		CitationCount: domain.UnknownCitations,
		URL:           get(6),
	}
	if authors := get(1); authors != "" {
		for _, a := range strings.Split(authors, authorSeparator) {
			if a = strings.TrimSpace(a); a != "" {
				p.Authors = append(p.Authors, a)
			}
		}
	}
	// The writer formats parsed dates as dateLayout; any other cell content
	// is an unparsed raw date and stays raw.
	if date := get(3); date != "" {
		if t, err := time.Parse(dateLayout, date); err == nil {
			p.PublicationDate = &t
		} else {
			p.PublicationRaw = date
		}
	}
	if c := get(4); c != "" {
		if n, err := strconv.Atoi(c); err == nil {
			p.CitationCount = n
		}
	}
	if st, ok := domain.ParseSourceType(get(5)); ok {
		p.Source = st
	} else {
		p.Source = domain.SourceType(get(5))
	}
	return p
}
