package semanticscholar

// searchResponse is the Graph API paper search envelope.
type searchResponse struct {
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Next   int           `json:"next"`
	Data   []paperResult `json:"data"`
}

// paperResult is one paper in a Graph API response.
type paperResult struct {
	PaperID         string       `json:"paperId"`
	Title           string       `json:"title"`
	Abstract        string       `json:"abstract"`
	Year            int          `json:"year"`
	PublicationDate string       `json:"publicationDate"` // "2023-06-15"
	Venue           string       `json:"venue"`
	URL             string       `json:"url"`
	Authors         []authorInfo `json:"authors"`
	CitationCount   *int         `json:"citationCount"`
	ExternalIDs     *externalIDs `json:"externalIds"`
}

type authorInfo struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type externalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
