package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/model"
)

// PageCache stores fetched pages by URL.
type PageCache interface {
	GetCachedPage(ctx context.Context, url string) (*model.Page, error)
	SetCachedPage(ctx context.Context, page model.Page, ttl time.Duration) error
}

// CachedScraper serves pages from a PageCache and stores fresh fetches in it.
// Cache errors are logged and never fail a fetch.
type CachedScraper struct {
	next  Scraper
	cache PageCache
	ttl   time.Duration
}

// NewCachedScraper wraps next. Entries live for ttl.
func NewCachedScraper(next Scraper, cache PageCache, ttl time.Duration) *CachedScraper {
	return &CachedScraper{next: next, cache: cache, ttl: ttl}
}

func (c *CachedScraper) Name() string             { return c.next.Name() }
func (c *CachedScraper) Supports(url string) bool { return c.next.Supports(url) }

// Scrape implements Scraper.
func (c *CachedScraper) Scrape(ctx context.Context, url string) (*Result, error) {
	key := model.NormalizeURL(url)

	page, err := c.cache.GetCachedPage(ctx, key)
	switch {
	case err != nil:
		zap.L().Warn("scrape: cache lookup failed", zap.String("url", url), zap.Error(err))
	case page != nil && !page.Empty():
		return &Result{Page: *page, Source: "cache"}, nil
	}

	res, err := c.next.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}

	// Keyed by the requested URL so a redirected page is still found.
	entry := res.Page
	entry.URL = key
	if err := c.cache.SetCachedPage(ctx, entry, c.ttl); err != nil {
		zap.L().Warn("scrape: cache store failed", zap.String("url", url), zap.Error(err))
	}
	return res, nil
}
