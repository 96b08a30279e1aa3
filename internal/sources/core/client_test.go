package core

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

const resultsFixture = `<html><body>
<article class="search-result">
  <h3 class="title"><a href="/works/111">Open access repositories at scale</a></h3>
  <div class="authors">Maria Lopez, Tom Reed</div>
  <div class="description">An analysis of open access repository growth.</div>
  <div class="publisher">2019</div>
</article>
</body></html>`

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open access", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(resultsFixture))
	}))
	defer server.Close()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Source:    domain.SourceTypeCORE,
		RateLimit: 1000,
		BurstSize: 1000,
	})
	client := New(Config{BaseURL: server.URL, Enabled: true}, httpClient)

	res, err := client.Search(context.Background(), sources.SearchParams{Query: "open access", MaxResults: 10})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "Open access repositories at scale", rec.Title)
	assert.Equal(t, []string{"Maria Lopez", "Tom Reed"}, rec.Authors)
	assert.Equal(t, "An analysis of open access repository growth.", rec.Abstract)
	assert.Equal(t, "2019", rec.DateRaw)
	assert.Equal(t, server.URL+"/works/111", rec.URL)
}

func TestSplitAuthors(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, splitAuthors("A, B"))
	assert.Equal(t, []string{"Solo Author"}, splitAuthors("  Solo Author "))
	assert.Nil(t, splitAuthors("  ,  "))
}
