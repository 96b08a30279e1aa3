package sciencedirect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

const resultsFixture = `<html><body><ol>
<li class="ResultItem">
  <h2><a href="/science/article/pii/S0001">Deep learning for medical imaging</a></h2>
  <ol class="Authors"><li>Jane Doe</li><li>John Smith</li></ol>
  <span class="SubType">Review article</span>
  <span class="srctitle-date-fields">Medical Image Analysis, 15 March 2021</span>
  <div class="ResultText">A survey of deep learning methods in imaging.</div>
</li>
<li class="ResultItem">
  <h2><a href="/science/article/pii/S0002"></a></h2>
</li>
</ol></body></html>`

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Source:    domain.SourceTypeScienceDirect,
		RateLimit: 1000,
		BurstSize: 1000,
	})
	return New(Config{BaseURL: serverURL, Enabled: true}, httpClient)
}

func TestSearch(t *testing.T) {
	t.Run("extracts result items", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "deep learning", r.URL.Query().Get("qs"))
			_, _ = w.Write([]byte(resultsFixture))
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		res, err := client.Search(context.Background(), sources.SearchParams{Query: "deep learning", MaxResults: 10})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Dropped)
		require.Len(t, res.Records, 1)
		rec := res.Records[0]
		assert.Equal(t, "Deep learning for medical imaging", rec.Title)
		assert.Equal(t, []string{"Jane Doe", "John Smith"}, rec.Authors)
		assert.Contains(t, rec.DateRaw, "2021")
		assert.Equal(t, "Review article", rec.Extra["publication_type"])
		assert.Equal(t, server.URL+"/science/article/pii/S0001", rec.URL)
	})

	t.Run("unsupported browser redirect is unauthorized", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/unsupported_browser", http.StatusFound)
		})
		mux.HandleFunc("/unsupported_browser", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>please use a supported browser</html>"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})
}

func TestMetadata(t *testing.T) {
	client := New(Config{Enabled: true}, nil)
	assert.Equal(t, domain.SourceTypeScienceDirect, client.SourceType())
	assert.Equal(t, "ScienceDirect", client.Name())
}
