package arxiv

import "encoding/xml"

// feed represents the Atom XML response from the arXiv API.
type feed struct {
	XMLName      xml.Name `xml:"feed"`
	TotalResults int      `xml:"totalResults"`
	Entries      []entry  `xml:"entry"`
}

// entry represents a single arXiv paper in the Atom feed.
type entry struct {
	ID              string     `xml:"id"` // "http://arxiv.org/abs/2301.12345v1"
	Title           string     `xml:"title"`
	Summary         string     `xml:"summary"` // abstract
	Published       string     `xml:"published"`
	Updated         string     `xml:"updated"`
	Authors         []author   `xml:"author"`
	Categories      []category `xml:"category"`
	Links           []link     `xml:"link"`
	DOI             string     `xml:"doi"`
	JournalRef      string     `xml:"journal_ref"`
	PrimaryCategory category   `xml:"primary_category"`
}

type author struct {
	Name string `xml:"name"`
}

type category struct {
	Term string `xml:"term,attr"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}
