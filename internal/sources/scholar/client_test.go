package scholar

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

const resultsFixture = `<html><body><div id="gs_res_ccl_mid">
<div class="gs_r gs_or">
  <h3 class="gs_rt"><a href="https://example.org/paper1">Attention Is All You Need</a></h3>
  <div class="gs_a">A Vaswani, N Shazeer, … - Advances in neural information processing systems, 2017 - papers.nips.cc</div>
  <div class="gs_rs">The dominant sequence transduction models are based on complex recurrent networks…</div>
  <div class="gs_fl"><a href="/scholar?cites=1">Cited by 98210</a><a href="/scholar?related=1">Related articles</a></div>
</div>
<div class="gs_r gs_or">
  <h3 class="gs_rt">[CITATION] Citation-only result with no link</h3>
  <div class="gs_a">B Author - 2019</div>
</div>
<div class="gs_r gs_or">
  <h3 class="gs_rt"><a href="https://example.org/paper3"></a></h3>
  <div class="gs_a"></div>
</div>
</div></body></html>`

const captchaFixture = `<html><body><form id="captcha-form">unusual traffic</form></body></html>`

func testClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Source:    domain.SourceTypeGoogleScholar,
		RateLimit: 1000,
		BurstSize: 1000,
	})
	cfg.Enabled = true
	return New(cfg, httpClient)
}

func TestSearchScrape(t *testing.T) {
	t.Run("extracts result entries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "graph neural networks", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(resultsFixture))
		}))
		defer server.Close()

		client := testClient(t, Config{BaseURL: server.URL})
		res, err := client.Search(context.Background(), sources.SearchParams{Query: "graph neural networks", MaxResults: 10})
		require.NoError(t, err)

		// The third entry has no extractable title and is dropped.
		assert.Equal(t, 1, res.Dropped)
		require.Len(t, res.Records, 2)

		first := res.Records[0]
		assert.Equal(t, "Attention Is All You Need", first.Title)
		assert.Equal(t, []string{"A Vaswani", "N Shazeer"}, first.Authors)
		assert.Contains(t, first.DateRaw, "2017")
		assert.Equal(t, "Cited by 98210", first.CitationRaw)
		assert.Equal(t, "https://example.org/paper1", first.URL)

		// Citation-only entries keep their unlinked title.
		second := res.Records[1]
		assert.Equal(t, "Citation-only result with no link", second.Title)
		assert.Empty(t, second.URL)
		assert.Empty(t, second.CitationRaw)
	})

	t.Run("captcha page reports rate limiting", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(captchaFixture))
		}))
		defer server.Close()

		client := testClient(t, Config{BaseURL: server.URL})
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrRateLimited))
	})

	t.Run("empty results page is success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body><div id="gs_res_ccl_mid"></div></body></html>`))
		}))
		defer server.Close()

		client := testClient(t, Config{BaseURL: server.URL})
		res, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.NoError(t, err)
		assert.Empty(t, res.Records)
	})
}

func TestSearchSerpAPI(t *testing.T) {
	t.Run("routes through serpapi when key configured", func(t *testing.T) {
		body := `{
			"search_information": {"total_results": 120},
			"organic_results": [
				{
					"title": "BERT: Pre-training of Deep Bidirectional Transformers",
					"link": "https://example.org/bert",
					"snippet": "We introduce BERT…",
					"publication_info": {
						"summary": "J Devlin, MW Chang - arXiv preprint, 2018",
						"authors": [{"name": "J Devlin"}, {"name": "MW Chang"}]
					},
					"inline_links": {"cited_by": {"total": 90000}}
				}
			]
		}`
		var gotEngine, gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotEngine = r.URL.Query().Get("engine")
			gotKey = r.URL.Query().Get("api_key")
			if r.URL.Query().Get("start") != "0" {
				_, _ = w.Write([]byte(`{"organic_results": []}`))
				return
			}
			_, _ = w.Write([]byte(body))
		}))
		defer server.Close()

		client := testClient(t, Config{SerpAPIKey: "k", SerpAPIBaseURL: server.URL})
		res, err := client.Search(context.Background(), sources.SearchParams{Query: "bert", MaxResults: 5})
		require.NoError(t, err)

		assert.Equal(t, "google_scholar", gotEngine)
		assert.Equal(t, "k", gotKey)
		assert.Equal(t, 120, res.TotalResults)
		require.Len(t, res.Records, 1)
		rec := res.Records[0]
		assert.Equal(t, []string{"J Devlin", "MW Chang"}, rec.Authors)
		assert.Equal(t, "90000", rec.CitationRaw)
		assert.Equal(t, "arXiv preprint, 2018", rec.DateRaw)
	})

	t.Run("serpapi error is unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error": "Invalid API key"}`))
		}))
		defer server.Close()

		client := testClient(t, Config{SerpAPIKey: "bad", SerpAPIBaseURL: server.URL})
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})
}

func TestSplitByline(t *testing.T) {
	authors, date := splitByline("J Doe, A Smith - Nature, 2021 - nature.com")
	assert.Equal(t, "J Doe, A Smith", authors)
	assert.Equal(t, "Nature, 2021", date)

	authors, date = splitByline("solo line")
	assert.Equal(t, "solo line", authors)
	assert.Empty(t, date)
}
