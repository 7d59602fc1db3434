package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// RateLimited delays every Scrape until the shared limiter admits it. One
// limiter is shared by all seeds of a discovery run.
type RateLimited struct {
	next    Scraper
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter of rps requests per second and a
// burst of burst. rps <= 0 disables limiting.
func NewRateLimited(next Scraper, rps float64, burst int) *RateLimited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Name() string             { return r.next.Name() }
func (r *RateLimited) Supports(url string) bool { return r.next.Supports(url) }

// Scrape waits for a token, then delegates.
func (r *RateLimited) Scrape(ctx context.Context, url string) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, eris.Wrap(err, "scrape: rate limit wait")
	}
	return r.next.Scrape(ctx, url)
}
