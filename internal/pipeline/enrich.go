package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/preprocess"
	"github.com/sells-group/company-finder/internal/scrape"
)

// DefaultEnrichFetchTimeout bounds the page fetch for one company.
const DefaultEnrichFetchTimeout = 45 * time.Second

// PageFetcher fetches one page.
type PageFetcher interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// DetailExtractor pulls the details of one named company from page content.
type DetailExtractor interface {
	Enrich(ctx context.Context, company model.Company, content, country string) (model.Company, bool)
}

// Enricher fills missing fields of known companies from their websites or,
// without one, from the top search hit for the company name.
type Enricher struct {
	searcher     Searcher
	fetcher      PageFetcher
	extractor    DetailExtractor
	concurrency  int
	fetchTimeout time.Duration
}

// NewEnricher wires an Enricher. searcher may be nil, in which case
// companies without a website are left unchanged.
func NewEnricher(searcher Searcher, fetcher PageFetcher, extractor DetailExtractor, concurrency int, fetchTimeout time.Duration) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultMaxConcurrentSeeds
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultEnrichFetchTimeout
	}
	return &Enricher{
		searcher:     searcher,
		fetcher:      fetcher,
		extractor:    extractor,
		concurrency:  concurrency,
		fetchTimeout: fetchTimeout,
	}
}

// Enrich returns the companies of req with gaps filled, in input order and
// deduplicated. A company whose page cannot be found, fetched or matched is
// returned unchanged.
func (e *Enricher) Enrich(ctx context.Context, req model.EnrichRequest) (*model.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([]model.Company, len(req.Companies))
	copy(out, req.Companies)

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range out {
		g.Go(func() error {
			out[i] = e.enrichOne(ctx, out[i], req.Country)
			return nil
		})
	}
	_ = g.Wait()

	resp := model.NewSearchResponse(Dedup(out))
	zap.L().Info("pipeline: enrichment finished",
		zap.Int("requested", len(req.Companies)),
		zap.Int("companies", resp.TotalCompanies),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &resp, nil
}

func (e *Enricher) enrichOne(ctx context.Context, c model.Company, country string) model.Company {
	if ctx.Err() != nil {
		return c
	}
	log := zap.L().With(zap.String("company", c.Name))

	target := e.pageFor(ctx, c, country)
	if target == "" {
		log.Debug("pipeline: no page to enrich from")
		return c
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	res, err := e.fetcher.Scrape(fetchCtx, target)
	cancel()
	if err != nil || res == nil || res.Page.Empty() {
		log.Warn("pipeline: enrich fetch failed", zap.String("url", target), zap.Error(err))
		return c
	}

	content := preprocess.Prepare(res.Page).Content
	found, ok := e.extractor.Enrich(ctx, c, content, country)
	if !ok {
		log.Debug("pipeline: no matching record on page", zap.String("url", target))
		return c
	}

	found.SourceURL = res.Page.URL
	if found.SourceURL == "" {
		found.SourceURL = target
	}
	return c.FillGaps(found.Normalize())
}

// pageFor picks the website of c, else the first usable search hit.
func (e *Enricher) pageFor(ctx context.Context, c model.Company, country string) string {
	if site := normalizeWebsite(c.Website); site != "" {
		return site
	}
	if e.searcher == nil {
		return ""
	}
	query := strings.TrimSpace(c.Name + " " + country)
	hits, err := e.searcher.Search(ctx, query, 3, country)
	if err != nil {
		zap.L().Warn("pipeline: enrich search failed", zap.String("company", c.Name), zap.Error(err))
		return ""
	}
	for _, h := range hits {
		if model.IsHTTP(h.URL) {
			return h.URL
		}
	}
	return ""
}

// normalizeWebsite adds a scheme to a bare host such as "acme.example".
func normalizeWebsite(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	if !model.IsHTTP(site) {
		return ""
	}
	return site
}
