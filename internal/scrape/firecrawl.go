package scrape

import (
	"context"
	"time"

	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/pkg/firecrawl"
)

// FirecrawlAdapter wraps a Firecrawl client as the last-resort Scraper.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports returns true: Firecrawl can attempt any URL.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches a single URL with both HTML and markdown. The full page is
// requested so pagination controls outside the main content survive.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"markdown", "html"},
		WaitFor: 1000,
	})
	if err != nil {
		return nil, err
	}

	pageURL := resp.Data.Metadata.FinalURL()
	if pageURL == "" {
		pageURL = targetURL
	}
	return &Result{
		Page: model.Page{
			URL:        pageURL,
			Title:      resp.Data.Metadata.Title,
			HTML:       resp.Data.HTML,
			Markdown:   resp.Data.Markdown,
			StatusCode: resp.Data.Metadata.StatusCode,
			FetchedAt:  time.Now().UTC(),
		},
		Source: "firecrawl",
	}, nil
}
