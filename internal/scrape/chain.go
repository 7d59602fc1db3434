package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/resilience"
)

// Chain tries scrapers in priority order, returning the first success.
type Chain struct {
	PathMatcher *PathMatcher
	scrapers    []Scraper
}

// NewChain creates a Chain with the given path matcher and scrapers.
// A nil matcher excludes nothing.
func NewChain(matcher *PathMatcher, scrapers ...Scraper) *Chain {
	return &Chain{
		PathMatcher: matcher,
		scrapers:    scrapers,
	}
}

// Name implements Scraper.
func (c *Chain) Name() string { return "chain" }

// Supports implements Scraper.
func (c *Chain) Supports(url string) bool { return !c.PathMatcher.IsExcluded(url) }

// Scrape tries each scraper in order for a single URL. Failures are
// classified as resilience.KindFetchFailed unless the context ended first.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if c.PathMatcher.IsExcluded(targetURL) {
		return nil, resilience.NewError(resilience.KindFetchFailed, "fetch",
			eris.Errorf("url excluded by path matcher: %s", targetURL))
	}

	var lastErr error
	for _, s := range c.scrapers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.Supports(targetURL) {
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil && !result.Page.Empty() {
			if result.Page.URL == "" {
				result.Page.URL = targetURL
			}
			return result, nil
		}
		if err == nil {
			err = eris.Errorf("%s: empty page", s.Name())
		}
		zap.L().Debug("scrape: scraper failed, trying next",
			zap.String("scraper", s.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lastErr != nil {
		return nil, resilience.NewError(resilience.KindFetchFailed, "fetch",
			eris.Wrap(lastErr, "all scrapers failed"))
	}
	return nil, resilience.NewError(resilience.KindFetchFailed, "fetch",
		eris.Errorf("no suitable scraper for url: %s", targetURL))
}
