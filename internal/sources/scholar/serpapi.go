package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

// serpResponse mirrors the SerpAPI google_scholar engine response, reduced
// to the fields the adapter extracts.
type serpResponse struct {
	Error             string `json:"error"`
	SearchInformation struct {
		TotalResults int `json:"total_results"`
	} `json:"search_information"`
	OrganicResults []serpResult `json:"organic_results"`
}

type serpResult struct {
	Title           string `json:"title"`
	Link            string `json:"link"`
	Snippet         string `json:"snippet"`
	PublicationInfo struct {
		Summary string `json:"summary"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
	} `json:"publication_info"`
	InlineLinks struct {
		CitedBy struct {
			Total int `json:"total"`
		} `json:"cited_by"`
	} `json:"inline_links"`
}

func (c *Client) fetchSerpAPIPage(ctx context.Context, query string, offset int) ([]sources.RawRecord, int, error) {
	reqURL := c.config.SerpAPIBaseURL + "?" + url.Values{
		"engine":  {"google_scholar"},
		"q":       {query},
		"api_key": {c.config.SerpAPIKey},
		"hl":      {"en"},
		"start":   {strconv.Itoa(offset)},
	}.Encode()

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var sr serpResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&sr); err != nil {
		return nil, 0, domain.NewSourceError(domain.SourceTypeGoogleScholar, domain.ErrorClassParse,
			fmt.Sprintf("decoding SerpAPI response: %v", err), domain.ErrParse)
	}
	if sr.Error != "" {
		return nil, 0, domain.NewSourceError(domain.SourceTypeGoogleScholar, domain.ErrorClassUnauthorized,
			sr.Error, domain.ErrUnauthorized)
	}

	records := make([]sources.RawRecord, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		if r.Title == "" {
			continue
		}
		var authors []string
		for _, a := range r.PublicationInfo.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}
		if len(authors) == 0 && r.PublicationInfo.Summary != "" {
			summaryAuthors, _ := splitByline(r.PublicationInfo.Summary)
			authors = authorsFromByline(summaryAuthors)
		}
		_, dateRaw := splitByline(r.PublicationInfo.Summary)

		citationRaw := ""
		if r.InlineLinks.CitedBy.Total > 0 {
			citationRaw = strconv.Itoa(r.InlineLinks.CitedBy.Total)
		}

		records = append(records, sources.RawRecord{
			Title:       r.Title,
			Authors:     authors,
			Abstract:    r.Snippet,
			DateRaw:     dateRaw,
			CitationRaw: citationRaw,
			URL:         r.Link,
			Extra:       map[string]string{"via": "serpapi"},
		})
	}
	return records, sr.SearchInformation.TotalResults, nil
}
