// Package scrape fetches single pages for the pagination traversal, trying
// a plain HTTP fetch first and falling back to Jina Reader and Firecrawl.
package scrape

import (
	"context"

	"github.com/sells-group/company-finder/internal/model"
)

// Result holds a fetched page with the scraper that produced it.
type Result struct {
	Page   model.Page
	Source string // e.g. "local_http", "jina", "firecrawl", "cache"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
