package semanticscholar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

func testClient(t *testing.T, serverURL, apiKey string) *Client {
	t.Helper()
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Source:       domain.SourceTypeSemanticScholar,
		RateLimit:    1000,
		BurstSize:    1000,
		APIKey:       apiKey,
		APIKeyHeader: apiKeyHeader,
	})
	return New(Config{BaseURL: serverURL, APIKey: apiKey, Enabled: true}, httpClient)
}

func TestSearch(t *testing.T) {
	t.Run("parses search response", func(t *testing.T) {
		citations := 57
		response := searchResponse{
			Total: 321,
			Next:  10,
			Data: []paperResult{
				{
					PaperID:         "abc123",
					Title:           "CRISPR Screens at Scale",
					Abstract:        "We present large-scale CRISPR screens.",
					Year:            2023,
					PublicationDate: "2023-06-15",
					Venue:           "Nature Methods",
					URL:             "https://www.semanticscholar.org/paper/abc123",
					Authors: []authorInfo{
						{AuthorID: "a1", Name: "Jane Doe"},
						{AuthorID: "a2", Name: "John Smith"},
					},
					CitationCount: &citations,
					ExternalIDs:   &externalIDs{DOI: "10.1038/x"},
				},
				{
					// No title: dropped.
					PaperID: "def456",
				},
				{
					PaperID: "ghi789",
					Title:   "Year Only Paper",
					Year:    2020,
				},
			},
		}
		var gotKey, gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("x-api-key")
			gotQuery = r.URL.Query().Get("query")
			require.NoError(t, json.NewEncoder(w).Encode(response))
		}))
		defer server.Close()

		client := testClient(t, server.URL, "secret")
		res, err := client.Search(context.Background(), sources.SearchParams{Query: "crispr", MaxResults: 10})
		require.NoError(t, err)

		assert.Equal(t, "secret", gotKey)
		assert.Equal(t, "crispr", gotQuery)
		assert.Equal(t, 321, res.TotalResults)
		assert.Equal(t, 1, res.Dropped)
		require.Len(t, res.Records, 2)

		first := res.Records[0]
		assert.Equal(t, "CRISPR Screens at Scale", first.Title)
		assert.Equal(t, []string{"Jane Doe", "John Smith"}, first.Authors)
		assert.Equal(t, "2023-06-15", first.DateRaw)
		assert.Equal(t, "57", first.CitationRaw)
		assert.Equal(t, "Nature Methods", first.Extra["venue"])
		assert.Equal(t, "10.1038/x", first.Extra["doi"])

		// Missing publicationDate falls back to the year.
		second := res.Records[1]
		assert.Equal(t, "2020", second.DateRaw)
		assert.Empty(t, second.CitationRaw)
		assert.Equal(t, "https://www.semanticscholar.org/paper/ghi789", second.URL)
	})

	t.Run("429 surfaces as rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := testClient(t, server.URL, "")
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrRateLimited))
	})

	t.Run("invalid JSON is a parse error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{broken"))
		}))
		defer server.Close()

		client := testClient(t, server.URL, "")
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorClassParse, domain.Classify(err))
	})
}

func TestMetadata(t *testing.T) {
	client := New(Config{Enabled: true}, nil)
	assert.Equal(t, domain.SourceTypeSemanticScholar, client.SourceType())
	assert.Equal(t, "Semantic Scholar", client.Name())
	assert.True(t, client.IsEnabled())
}
