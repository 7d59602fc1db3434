package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/config"
	"github.com/sells-group/company-finder/internal/crawl"
	"github.com/sells-group/company-finder/internal/extract"
	"github.com/sells-group/company-finder/internal/llm"
	"github.com/sells-group/company-finder/internal/pipeline"
	"github.com/sells-group/company-finder/internal/relevance"
	"github.com/sells-group/company-finder/internal/resilience"
	"github.com/sells-group/company-finder/internal/scrape"
	"github.com/sells-group/company-finder/internal/search"
	"github.com/sells-group/company-finder/internal/store"
	anthropicpkg "github.com/sells-group/company-finder/pkg/anthropic"
	"github.com/sells-group/company-finder/pkg/firecrawl"
	"github.com/sells-group/company-finder/pkg/google"
	"github.com/sells-group/company-finder/pkg/jina"
	"github.com/sells-group/company-finder/pkg/perplexity"
)

// finderEnv holds the initialized store, clients and pipeline stages needed
// by the discover/enrich/serve commands.
type finderEnv struct {
	Store        store.Store // nil with the none driver
	Orchestrator *pipeline.Orchestrator
	Enricher     *pipeline.Enricher
}

// Close releases resources held by the environment.
func (fe *finderEnv) Close() {
	if fe.Store != nil {
		_ = fe.Store.Close()
	}
}

// initStore opens and migrates the configured store. It returns nil with
// the none driver.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: c.Store.MaxConns,
		MinConns: c.Store.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initFinder validates c for mode and builds the whole pipeline. Callers
// should defer env.Close().
func initFinder(ctx context.Context, c *config.Config, mode string) (*finderEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	env := buildFinder(c, st)
	zap.L().Info("finder initialized",
		zap.String("store", c.Store.Driver),
		zap.Strings("search_providers", c.Search.Providers),
		zap.String("llm_provider", c.LLM.Provider),
	)
	return env, nil
}

// buildFinder wires every stage around st, which may be nil.
func buildFinder(c *config.Config, st store.Store) *finderEnv {
	breakers := resilience.NewServiceBreakers(c.LLM.Breaker.BreakerConfig)
	retry := c.LLM.Retry.RetryConfig()

	filter := relevance.New(
		llm.NewGuarded(buildCompleter(c, stageProvider(c, c.Relevance)), breakers, retry),
		c.Relevance.Timeout(),
	)
	extractor := extract.New(
		llm.NewGuarded(buildCompleter(c, stageProvider(c, c.Extract)), breakers, retry),
		c.Extract.Timeout(),
	)

	fetcher := buildFetcher(c, st)
	engine := crawl.NewEngine(fetcher, extractor, crawl.Config{
		MaxDepth:     c.Crawl.MaxDepth,
		FetchTimeout: c.Crawl.FetchTimeout(),
	})

	searcher := buildSearcher(c)

	var opts []pipeline.Option
	if st != nil {
		opts = append(opts, pipeline.WithRecorder(st))
	}
	orch := pipeline.NewOrchestrator(searcher, filter, engine, pipeline.Config{
		SearchMargin:       c.Search.Margin,
		MaxConcurrentSeeds: c.Crawl.MaxConcurrentSeeds,
		MaxDepth:           c.Crawl.MaxDepth,
		BlockedDomains:     c.Search.BlockedDomains,
	}, opts...)

	enricher := pipeline.NewEnricher(searcher, fetcher, extractor, c.Crawl.MaxConcurrentSeeds, c.Crawl.FetchTimeout())

	return &finderEnv{Store: st, Orchestrator: orch, Enricher: enricher}
}

// stageProvider returns the provider a stage runs on.
func stageProvider(c *config.Config, stage config.StageConfig) string {
	if stage.Provider != "" {
		return stage.Provider
	}
	return c.LLM.Provider
}

// buildCompleter returns the completer for provider.
func buildCompleter(c *config.Config, provider string) llm.Completer {
	switch provider {
	case "perplexity":
		client := perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.AccurateModel),
			// Retries happen in llm.Guarded.
			perplexity.WithRetry(1, 0),
		)
		return llm.NewPerplexity(client, llm.Models{
			Fast:     c.Perplexity.FastModel,
			Accurate: c.Perplexity.AccurateModel,
		})
	default:
		var opts []anthropicpkg.Option
		if c.Anthropic.BaseURL != "" {
			opts = append(opts, anthropicpkg.WithBaseURL(c.Anthropic.BaseURL))
		}
		// Retries happen in llm.Guarded.
		opts = append(opts, anthropicpkg.WithMaxRetries(0))
		return llm.NewAnthropic(anthropicpkg.NewClient(c.Anthropic.Key, opts...), llm.Models{
			Fast:     c.Anthropic.FastModel,
			Accurate: c.Anthropic.AccurateModel,
		})
	}
}

// buildJina creates the Jina client shared by search and fetch.
func buildJina(c *config.Config) jina.Client {
	opts := []jina.Option{jina.WithBaseURL(c.Jina.BaseURL)}
	if c.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
	}
	return jina.NewClient(c.Jina.Key, opts...)
}

// buildSearcher combines the configured search providers.
func buildSearcher(c *config.Config) pipeline.Searcher {
	var providers []search.Provider
	for _, name := range c.Search.Providers {
		switch name {
		case "jina":
			providers = append(providers, search.NewJinaProvider(buildJina(c)))
		case "places":
			if c.Google.Key == "" {
				zap.L().Warn("FINDER_GOOGLE_KEY not set, places search disabled")
				continue
			}
			var opts []google.Option
			if c.Google.BaseURL != "" {
				opts = append(opts, google.WithBaseURL(c.Google.BaseURL))
			}
			providers = append(providers, search.NewPlacesProvider(google.NewClient(c.Google.Key, opts...), c.Google.MaxPages))
		}
	}
	if len(providers) == 1 {
		return providers[0]
	}
	return search.NewMulti(providers...)
}

// buildFetcher builds the fetch chain: local HTTP, then Jina reader, then
// Firecrawl when a key is set. It is rate limited and, with a store, cached.
func buildFetcher(c *config.Config, st store.Store) scrape.Scraper {
	var scrapers []scrape.Scraper
	if !c.Crawl.DisableLocal {
		scrapers = append(scrapers, scrape.NewLocalScraper(nil))
	}
	scrapers = append(scrapers, scrape.NewJinaAdapter(buildJina(c)))
	if c.Firecrawl.Key != "" {
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(
			firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL)),
		))
	} else {
		zap.L().Debug("FINDER_FIRECRAWL_KEY not set, firecrawl fallback disabled")
	}

	var fetcher scrape.Scraper = scrape.NewRateLimited(
		scrape.NewChain(scrape.NewPathMatcher(c.Crawl.ExcludePaths), scrapers...),
		c.Crawl.RateLimitRPS, c.Crawl.RateLimitBurst,
	)
	if st != nil && c.Crawl.CacheTTL() > 0 {
		fetcher = scrape.NewCachedScraper(fetcher, st, c.Crawl.CacheTTL())
	}
	return fetcher
}
