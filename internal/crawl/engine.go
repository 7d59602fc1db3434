// Package crawl follows a listing's pagination from a seed URL, extracting
// companies from every page.
package crawl

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/extract"
	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/preprocess"
	"github.com/sells-group/company-finder/internal/scrape"
)

const (
	// DefaultMaxDepth is the page budget per seed when none is given.
	DefaultMaxDepth = 5
	// DefaultFetchTimeout bounds a single page fetch.
	DefaultFetchTimeout = 45 * time.Second
)

// Fetcher fetches one page.
type Fetcher interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// Extractor extracts companies and pagination hints from one page. It never
// fails; a failed call yields an empty Extraction.
type Extractor interface {
	Extract(ctx context.Context, in extract.Input) extract.Extraction
}

// Config tunes an Engine.
type Config struct {
	MaxDepth     int
	FetchTimeout time.Duration
}

// Engine runs pagination traversals. It holds no per-traversal state and is
// safe for concurrent use.
type Engine struct {
	fetcher   Fetcher
	extractor Extractor
	cfg       Config
}

// NewEngine creates an Engine, filling zero config fields with defaults.
func NewEngine(fetcher Fetcher, extractor Extractor, cfg Config) *Engine {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Engine{fetcher: fetcher, extractor: extractor, cfg: cfg}
}

// Traverse crawls seedURL and the pages its pagination links lead to, up to
// maxDepth pages (<= 0 selects the engine default). Companies from every
// page are returned in page order, before any dedup. The status is
// completed when the listing ran out of pages or depth, and failed on a
// fetch error or cancellation; companies gathered before a failure are
// still returned.
func (e *Engine) Traverse(ctx context.Context, seedURL, query string, maxDepth int) ([]model.Company, model.CrawlStatus) {
	if maxDepth <= 0 {
		maxDepth = e.cfg.MaxDepth
	}
	status := model.NewCrawlStatus(seedURL)
	companies := []model.Company{}
	cursor := NewCursor(seedURL, maxDepth)

	log := zap.L().With(zap.String("seed", seedURL))

	for {
		pageURL, ok := cursor.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			status.Fail(len(companies), cancelledMessage(err))
			return companies, status
		}

		page, err := e.fetch(ctx, pageURL)
		if err != nil {
			msg := "fetch failed: " + err.Error()
			if ctxErr := ctx.Err(); ctxErr != nil {
				msg = cancelledMessage(ctxErr)
			}
			log.Warn("crawl: page fetch failed",
				zap.String("url", pageURL),
				zap.Int("depth", cursor.Depth()),
				zap.Error(err),
			)
			status.Fail(len(companies), msg)
			return companies, status
		}

		prepared := preprocess.Prepare(*page)
		ex := e.extractor.Extract(ctx, extract.Input{
			URL:      pageURL,
			Content:  prepared.Content,
			Elements: preprocess.Render(prepared.Elements),
			Query:    query,
		})
		if err := ctx.Err(); err != nil {
			status.Fail(len(companies), cancelledMessage(err))
			return companies, status
		}

		for _, c := range ex.Companies {
			c.SourceURL = pageURL
			companies = append(companies, c)
		}

		base := page.URL
		if base == "" {
			base = pageURL
		}
		cursor.MarkVisited(base)
		reason := cursor.Advance(base, ex.NextPageURL)
		log.Debug("crawl: page processed",
			zap.String("url", pageURL),
			zap.Int("depth", cursor.Depth()),
			zap.Int("companies", len(ex.Companies)),
			zap.String("next", cursor.Current()),
		)
		if reason != "" && ex.NextPageURL == "" && ex.PaginationSelector != "" {
			log.Info("crawl: pagination selector without url, not followed",
				zap.String("url", pageURL),
				zap.String("selector", ex.PaginationSelector),
			)
		}
	}

	status.Complete(len(companies))
	log.Info("crawl: seed completed",
		zap.Int("pages", cursor.Depth()),
		zap.Int("companies", len(companies)),
	)
	return companies, status
}

func (e *Engine) fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	res, err := e.fetcher.Scrape(fetchCtx, pageURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, eris.Errorf("timed out after %s", e.cfg.FetchTimeout)
		}
		return nil, err
	}
	if res == nil || res.Page.Empty() {
		return nil, eris.New("empty page")
	}
	return &res.Page, nil
}

func cancelledMessage(err error) string {
	return "cancelled: " + err.Error()
}
