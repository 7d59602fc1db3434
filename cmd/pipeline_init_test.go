package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-finder/internal/config"
	"github.com/sells-group/company-finder/internal/llm"
	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/scrape"
	"github.com/sells-group/company-finder/internal/search"
)

const listingHTML = `<!doctype html>
<html><head><title>Plumbers in Austin - Local Directory</title></head>
<body>
<h1>Plumbers in Austin</h1>
<ul>
<li><a href="https://acme.example">Acme Plumbing</a> - emergency repairs, +1 512 555 0100</li>
<li>Beta Pipes - 1 Main St, Austin</li>
</ul>
</body></html>`

const extractionJSON = `{"companies":[` +
	`{"name":"Acme Plumbing","website":"https://acme.example","phone":"+1 512 555 0100","email":"info@acme.example"},` +
	`{"name":"Beta Pipes","address":"1 Main St, Austin"}` +
	`],"next_page_url":null}`

// testConfig returns a valid config with every external service unset.
func testConfig() *config.Config {
	c := &config.Config{}
	c.Store.Driver = "none"
	c.LLM.Provider = "anthropic"
	c.Anthropic.Key = "test-key"
	c.Anthropic.FastModel = "fast-model"
	c.Anthropic.AccurateModel = "accurate-model"
	c.Perplexity.Key = "pplx-key"
	c.Perplexity.FastModel = "sonar"
	c.Perplexity.AccurateModel = "sonar-pro"
	c.Search.Providers = []string{"jina"}
	c.Search.Margin = 10
	c.Crawl.MaxDepth = 3
	c.Crawl.MaxConcurrentSeeds = 2
	c.Crawl.FetchTimeoutSecs = 5
	c.Crawl.CacheTTLHours = 24
	c.Relevance.TimeoutSecs = 5
	c.Extract.TimeoutSecs = 5
	c.Server.Port = 8080
	return c
}

// fakeServices starts a listing site, a Jina search endpoint and an
// Anthropic messages endpoint, and points c at them.
func fakeServices(t *testing.T, c *config.Config) *httptest.Server {
	t.Helper()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, listingHTML)
	}))
	t.Cleanup(site.Close)

	jinaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"code": 200,
			"data": []map[string]any{
				{"title": "Plumbers in Austin", "url": site.URL + "/plumbers", "description": "Directory of local plumbers"},
				{"title": "How to fix a leak", "url": site.URL + "/blog/leak", "description": "DIY guide"},
				{"title": "Plumbing", "url": "https://en.wikipedia.org/wiki/Plumbing", "description": "Encyclopedia"},
			},
		})
	}))
	t.Cleanup(jinaSrv.Close)

	anthropicSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		text := extractionJSON
		if body.Model == "fast-model" {
			text = "[0]"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"model":       body.Model,
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 10},
		})
	}))
	t.Cleanup(anthropicSrv.Close)

	c.Jina.BaseURL = jinaSrv.URL
	c.Jina.SearchBaseURL = jinaSrv.URL
	c.Anthropic.BaseURL = anthropicSrv.URL
	return site
}

func TestStageProvider(t *testing.T) {
	c := testConfig()
	assert.Equal(t, "anthropic", stageProvider(c, c.Relevance))

	c.Relevance.Provider = "perplexity"
	assert.Equal(t, "perplexity", stageProvider(c, c.Relevance))
	assert.Equal(t, "anthropic", stageProvider(c, c.Extract))
}

func TestBuildCompleter(t *testing.T) {
	c := testConfig()
	assert.Equal(t, "anthropic", buildCompleter(c, "anthropic").Name())
	assert.Equal(t, "perplexity", buildCompleter(c, "perplexity").Name())
}

func TestBuildCompleter_PerplexityLeavesRetriesToGuard(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testConfig()
	c.Perplexity.Key = "pplx"
	c.Perplexity.BaseURL = srv.URL

	_, err := buildCompleter(c, "perplexity").Complete(context.Background(), llm.Request{Op: "relevance", User: "hi", MaxTokens: 10})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBuildSearcher(t *testing.T) {
	c := testConfig()
	_, ok := buildSearcher(c).(*search.JinaProvider)
	assert.True(t, ok, "single provider is used directly")

	c.Search.Providers = []string{"jina", "places"}
	_, ok = buildSearcher(c).(*search.JinaProvider)
	assert.True(t, ok, "places without a key is skipped")

	c.Google.Key = "g-key"
	_, ok = buildSearcher(c).(*search.Multi)
	assert.True(t, ok, "several providers are interleaved")
}

func TestBuildFetcher(t *testing.T) {
	c := testConfig()

	f := buildFetcher(c, nil)
	_, ok := f.(*scrape.RateLimited)
	assert.True(t, ok, "no store means no cache")
	assert.Equal(t, "chain", f.Name())

	st, err := initStore(context.Background(), storeConfig(t))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, ok = buildFetcher(c, st).(*scrape.CachedScraper)
	assert.True(t, ok, "store enables the page cache")

	c.Crawl.CacheTTLHours = 0
	_, ok = buildFetcher(c, st).(*scrape.RateLimited)
	assert.True(t, ok, "zero ttl disables the page cache")
}

func storeConfig(t *testing.T) *config.Config {
	c := testConfig()
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "finder.db")
	return c
}

func TestInitStore(t *testing.T) {
	st, err := initStore(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = initStore(context.Background(), storeConfig(t))
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Close())

	c := testConfig()
	c.Store.Driver = "postgres"
	_, err = initStore(context.Background(), c)
	assert.Error(t, err)
}

func TestInitFinder_ValidatesConfig(t *testing.T) {
	c := testConfig()
	c.Anthropic.Key = ""

	_, err := initFinder(context.Background(), c, "discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestFinder_DiscoverEndToEnd(t *testing.T) {
	c := storeConfig(t)
	site := fakeServices(t, c)

	env, err := initFinder(context.Background(), c, "discover")
	require.NoError(t, err)
	defer env.Close()

	res, err := env.Orchestrator.Discover(context.Background(), model.SearchRequest{
		Query: "plumbers in Austin",
		Limit: 10,
	})
	require.NoError(t, err)

	require.Equal(t, 2, res.Response.TotalCompanies)
	assert.Equal(t, "Acme Plumbing", res.Response.Results[0].Name)
	assert.Equal(t, "+1 512 555 0100", res.Response.Results[0].Phone)
	assert.Equal(t, "Beta Pipes", res.Response.Results[1].Name)

	byURL := map[string]model.CrawlStatus{}
	for _, s := range res.Statuses {
		byURL[s.URL] = s
	}
	seed := byURL[site.URL+"/plumbers"]
	assert.Equal(t, model.CrawlCompleted, seed.Status)
	assert.Equal(t, 2, seed.CompaniesFound)
	assert.Equal(t, model.CrawlSkipped, byURL[site.URL+"/blog/leak"].Status)
	assert.Equal(t, model.CrawlSkipped, byURL["https://en.wikipedia.org/wiki/Plumbing"].Status)

	// The run is recorded and the listing page cached.
	run, err := env.Store.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 2, run.Result.TotalCompanies)

	page, err := env.Store.GetCachedPage(context.Background(), model.NormalizeURL(site.URL+"/plumbers"))
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Contains(t, page.HTML, "Acme Plumbing")
}

func TestFinder_EnrichEndToEnd(t *testing.T) {
	c := testConfig()
	site := fakeServices(t, c)

	env, err := initFinder(context.Background(), c, "enrich")
	require.NoError(t, err)
	defer env.Close()

	resp, err := env.Enricher.Enrich(context.Background(), model.EnrichRequest{
		Companies: []model.Company{{Name: "Acme Plumbing", Website: site.URL + "/plumbers"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	got := resp.Results[0]
	assert.Equal(t, "Acme Plumbing", got.Name)
	assert.Equal(t, site.URL+"/plumbers", got.Website)
	assert.Equal(t, "+1 512 555 0100", got.Phone)
	assert.Equal(t, "info@acme.example", got.Email)
}
