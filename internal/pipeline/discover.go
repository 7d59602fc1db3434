// Package pipeline runs discovery: search, relevance filtering, parallel
// pagination traversals and deduplicating aggregation.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/resilience"
	"github.com/sells-group/company-finder/internal/search"
)

// Status messages for seeds that are never traversed.
const (
	MsgBlockedDomain = "blocked domain"
	MsgRejected      = "rejected by relevance filter"
)

const (
	// DefaultSearchMargin is added to the request limit when searching, since
	// some candidates are filtered out.
	DefaultSearchMargin = 10
	// DefaultMaxConcurrentSeeds bounds parallel traversals.
	DefaultMaxConcurrentSeeds = 5
)

// Searcher returns candidate pages for a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, country string) ([]model.Candidate, error)
}

// RelevanceFilter returns the URLs of relevant candidates.
type RelevanceFilter interface {
	Filter(ctx context.Context, candidates []model.Candidate, query string) []string
}

// Traverser crawls one seed URL following pagination.
type Traverser interface {
	Traverse(ctx context.Context, seedURL, query string, maxDepth int) ([]model.Company, model.CrawlStatus)
}

// RunRecorder persists the run log.
type RunRecorder interface {
	CreateRun(ctx context.Context, req model.SearchRequest) (*model.Run, error)
	CompleteRun(ctx context.Context, id string, result *model.RunResult) error
	FailRun(ctx context.Context, id, message string) error
}

// Config tunes an Orchestrator.
type Config struct {
	SearchMargin       int
	MaxConcurrentSeeds int
	// MaxDepth is passed to every traversal; 0 lets the engine decide.
	MaxDepth       int
	BlockedDomains []string
}

// DiscoverResult is the outcome of one discovery.
type DiscoverResult struct {
	RunID    string
	Response model.SearchResponse
	Statuses []model.CrawlStatus
	// SearchErr is set when the search collaborator failed; Response is
	// then empty.
	SearchErr error
}

// Orchestrator runs discoveries. It holds no per-request state; each call
// owns its aggregator, status board and cursors.
type Orchestrator struct {
	searcher  Searcher
	filter    RelevanceFilter
	traverser Traverser
	recorder  RunRecorder
	blocklist *search.Blocklist
	cfg       Config
	onStatus  func(model.CrawlStatus)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder records every run.
func WithRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithStatusListener is called for every status update of every run.
func WithStatusListener(fn func(model.CrawlStatus)) Option {
	return func(o *Orchestrator) { o.onStatus = fn }
}

// NewOrchestrator wires the collaborators. Zero config fields take defaults;
// a nil BlockedDomains selects search.DefaultBlockedDomains.
func NewOrchestrator(searcher Searcher, filter RelevanceFilter, traverser Traverser, cfg Config, opts ...Option) *Orchestrator {
	if cfg.SearchMargin < 0 {
		cfg.SearchMargin = 0
	} else if cfg.SearchMargin == 0 {
		cfg.SearchMargin = DefaultSearchMargin
	}
	if cfg.MaxConcurrentSeeds <= 0 {
		cfg.MaxConcurrentSeeds = DefaultMaxConcurrentSeeds
	}
	if cfg.BlockedDomains == nil {
		cfg.BlockedDomains = search.DefaultBlockedDomains
	}
	o := &Orchestrator{
		searcher:  searcher,
		filter:    filter,
		traverser: traverser,
		blocklist: search.NewBlocklist(cfg.BlockedDomains),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Discover finds up to req.Limit companies for req.Query. Only an invalid
// request is an error. A failed search yields an empty response with
// SearchErr set; every per-seed failure is reported in Statuses. When ctx
// is cancelled the companies gathered so far are still returned.
func (o *Orchestrator) Discover(ctx context.Context, req model.SearchRequest) (*DiscoverResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID, recorded := o.startRun(ctx, req)
	log := zap.L().With(zap.String("run_id", runID), zap.String("query", req.Query))
	log.Info("pipeline: discovery started", zap.Int("limit", req.Limit), zap.String("country", req.Country))

	candidates, err := o.searcher.Search(ctx, req.Query, req.Limit+o.cfg.SearchMargin, req.Country)
	if err != nil {
		err = classify("search", err)
		if recorded {
			o.failRun(ctx, runID, err.Error())
		}
		log.Error("pipeline: search failed",
			zap.String("kind", string(resilience.KindOf(err))),
			zap.Error(err),
		)
		return &DiscoverResult{
			RunID:     runID,
			Response:  model.NewSearchResponse(nil),
			Statuses:  []model.CrawlStatus{},
			SearchErr: err,
		}, nil
	}
	candidates = search.Dedup(candidates)

	board := NewStatusBoard(o.onStatus)
	allowed := make([]model.Candidate, 0, len(candidates))
	var blocked []string
	for _, c := range candidates {
		if o.blocklist.Blocked(c.URL) {
			blocked = append(blocked, c.URL)
			continue
		}
		allowed = append(allowed, c)
	}

	seeds := o.filter.Filter(ctx, allowed, req.Query)
	accepted := make(map[string]struct{}, len(seeds))
	for _, u := range seeds {
		accepted[model.NormalizeURL(u)] = struct{}{}
		board.Publish(model.NewCrawlStatus(u))
	}
	for _, c := range allowed {
		if _, ok := accepted[model.NormalizeURL(c.URL)]; !ok {
			board.Publish(model.NewSkippedStatus(c.URL, MsgRejected))
		}
	}
	for _, u := range blocked {
		board.Publish(model.NewSkippedStatus(u, MsgBlockedDomain))
	}

	log.Info("pipeline: seeds selected",
		zap.Int("candidates", len(candidates)),
		zap.Int("blocked", len(blocked)),
		zap.Int("seeds", len(seeds)),
	)

	batches := o.traverseAll(ctx, seeds, req.Query, board)

	agg := NewAggregator()
	for _, b := range batches {
		agg.Add(b...)
	}
	results := agg.Results()
	if agg.Len() > req.Limit {
		log.Debug("pipeline: truncating results",
			zap.Int("distinct", agg.Len()),
			zap.Int("limit", req.Limit),
		)
		results = results[:req.Limit]
	}

	out := &DiscoverResult{
		RunID:    runID,
		Response: model.NewSearchResponse(results),
		Statuses: board.Snapshot(),
	}

	switch {
	case !recorded:
	case ctx.Err() != nil:
		o.failRun(ctx, runID, "cancelled: "+ctx.Err().Error())
	default:
		o.completeRun(ctx, runID, out)
	}

	log.Info("pipeline: discovery finished",
		zap.Int("companies", out.Response.TotalCompanies),
		zap.Int("seeds", len(seeds)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// traverseAll crawls seeds with bounded parallelism. Batches are stored by
// seed index so the merge order is the acceptance order, not completion order.
func (o *Orchestrator) traverseAll(ctx context.Context, seeds []string, query string, board *StatusBoard) [][]model.Company {
	batches := make([][]model.Company, len(seeds))

	var g errgroup.Group
	g.SetLimit(o.cfg.MaxConcurrentSeeds)
	for i, seed := range seeds {
		g.Go(func() error {
			companies, status := o.traverser.Traverse(ctx, seed, query, o.cfg.MaxDepth)
			batches[i] = companies
			if !board.Publish(status) {
				prev, _ := board.Get(status.URL)
				zap.L().Warn("pipeline: seed already settled, status dropped",
					zap.String("seed", seed),
					zap.String("kept", string(prev.Status)),
					zap.String("dropped", string(status.Status)),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return batches
}

// startRun records the run when a recorder is configured. Without one, or
// when recording fails, the run gets a fresh ID and is not tracked.
func (o *Orchestrator) startRun(ctx context.Context, req model.SearchRequest) (string, bool) {
	if o.recorder == nil {
		return uuid.NewString(), false
	}
	run, err := o.recorder.CreateRun(ctx, req)
	if err != nil || run == nil {
		zap.L().Warn("pipeline: failed to record run", zap.Error(err))
		return uuid.NewString(), false
	}
	return run.ID, true
}

func (o *Orchestrator) completeRun(ctx context.Context, id string, res *DiscoverResult) {
	err := o.recorder.CompleteRun(context.WithoutCancel(ctx), id, &model.RunResult{
		Results:        res.Response.Results,
		TotalCompanies: res.Response.TotalCompanies,
		Statuses:       res.Statuses,
	})
	if err != nil {
		zap.L().Warn("pipeline: failed to complete run", zap.String("run_id", id), zap.Error(err))
	}
}

func (o *Orchestrator) failRun(ctx context.Context, id, msg string) {
	if err := o.recorder.FailRun(context.WithoutCancel(ctx), id, msg); err != nil {
		zap.L().Warn("pipeline: failed to mark run failed", zap.String("run_id", id), zap.Error(err))
	}
}

// classify tags a collaborator error with a kind, defaulting to unavailable.
func classify(op string, err error) error {
	var kerr *resilience.Error
	if errors.As(err, &kerr) {
		return err
	}
	kind := resilience.KindOf(err)
	if kind == "" {
		kind = resilience.KindUnavailable
	}
	return resilience.NewError(kind, op, err)
}
