package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/resilience"
)

// Guarded wraps a Completer with a circuit breaker and transient-error retry,
// and classifies every failure with a resilience.Kind.
type Guarded struct {
	inner   Completer
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewGuarded wraps inner. The breaker is looked up by inner.Name().
func NewGuarded(inner Completer, breakers *resilience.ServiceBreakers, retry resilience.RetryConfig) *Guarded {
	if breakers == nil {
		breakers = resilience.NewServiceBreakers(nil)
	}
	retry.OnRetry = resilience.RetryLogger(inner.Name(), "complete")
	return &Guarded{
		inner:   inner,
		breaker: breakers.Get(inner.Name()),
		retry:   retry,
	}
}

// Name implements Completer.
func (g *Guarded) Name() string { return g.inner.Name() }

// Complete implements Completer. Errors carry KindTimeout when ctx expired,
// KindMalformed when the provider returned unusable output, and
// KindUnavailable otherwise.
func (g *Guarded) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*Response, error) {
		return resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) (*Response, error) {
			resp, err := g.inner.Complete(ctx, req)
			if err == nil && resp == nil {
				return nil, resilience.NewError(resilience.KindMalformed, req.Op, eris.New("empty response"))
			}
			return resp, err
		})
	})
	if err == nil {
		zap.L().Debug("llm: completion",
			zap.String("provider", g.inner.Name()),
			zap.String("op", req.Op),
			zap.String("model", resp.Model),
			zap.Int64("input_tokens", resp.Usage.InputTokens),
			zap.Int64("output_tokens", resp.Usage.OutputTokens),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, nil
	}
	return nil, Classify(req.Op, err)
}

// Classify assigns a resilience.Kind to a provider error.
func Classify(op string, err error) error {
	var kerr *resilience.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &kerr):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return resilience.NewError(resilience.KindTimeout, op, err)
	default:
		return resilience.NewError(resilience.KindUnavailable, op, err)
	}
}
