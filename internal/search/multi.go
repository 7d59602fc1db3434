package search

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/company-finder/internal/model"
)

// Multi queries several providers concurrently and interleaves their results
// round-robin in provider order, deduplicated by URL. It fails only when
// every provider fails.
type Multi struct {
	providers []Provider
}

// NewMulti combines providers. Nil providers are skipped.
func NewMulti(providers ...Provider) *Multi {
	m := &Multi{}
	for _, p := range providers {
		if p != nil {
			m.providers = append(m.providers, p)
		}
	}
	return m
}

// Name implements Provider.
func (m *Multi) Name() string { return "multi" }

// Search implements Provider.
func (m *Multi) Search(ctx context.Context, query string, limit int, country string) ([]model.Candidate, error) {
	if len(m.providers) == 0 {
		return nil, eris.New("search: no providers configured")
	}

	batches := make([][]model.Candidate, len(m.providers))
	errs := make([]error, len(m.providers))

	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range m.providers {
		g.Go(func() error {
			res, err := p.Search(gCtx, query, limit, country)
			if err != nil {
				zap.L().Warn("search: provider failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				errs[i] = err
				return nil
			}
			batches[i] = res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(m.providers) {
		return nil, eris.Wrap(errs[0], "search: all providers failed")
	}

	var merged []model.Candidate
	for i := 0; ; i++ {
		added := false
		for _, b := range batches {
			if i < len(b) {
				merged = append(merged, b[i])
				added = true
			}
		}
		if !added {
			break
		}
	}
	merged = Dedup(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}
