package springer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

const resultsFixture = `<html><body><ol>
<li class="has-cover">
  <h2><a href="/article/10.1007/s1">Bayesian optimization in practice</a></h2>
  <span class="authors__name">Nina Vogel</span>
  <span class="authors__name">Omar Haddad</span>
  <p class="meta">Article | 12 January 2022</p>
  <span class="content-type">Article</span>
</li>
</ol></body></html>`

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bayesian optimization", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(resultsFixture))
	}))
	defer server.Close()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Source:    domain.SourceTypeSpringer,
		RateLimit: 1000,
		BurstSize: 1000,
	})
	client := New(Config{BaseURL: server.URL, Enabled: true}, httpClient)

	res, err := client.Search(context.Background(), sources.SearchParams{Query: "bayesian optimization", MaxResults: 10})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "Bayesian optimization in practice", rec.Title)
	assert.Equal(t, []string{"Nina Vogel", "Omar Haddad"}, rec.Authors)
	assert.Contains(t, rec.DateRaw, "2022")
	assert.Equal(t, "Article", rec.Extra["content_type"])
	assert.Equal(t, server.URL+"/article/10.1007/s1", rec.URL)
}
