package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-finder/internal/resilience"
	"github.com/sells-group/company-finder/pkg/anthropic"
)

// DefaultAnthropicModels are used when configuration leaves models empty.
var DefaultAnthropicModels = Models{
	Fast:     "claude-haiku-4-5-20251001",
	Accurate: "claude-sonnet-4-5-20250929",
}

// AnthropicCompleter runs completions on the Anthropic Messages API with a
// cached system prompt and zero temperature.
type AnthropicCompleter struct {
	client anthropic.Client
	models Models
}

// NewAnthropic creates a completer; empty model fields fall back to defaults.
func NewAnthropic(client anthropic.Client, models Models) *AnthropicCompleter {
	if models.Fast == "" {
		models.Fast = DefaultAnthropicModels.Fast
	}
	if models.Accurate == "" {
		models.Accurate = DefaultAnthropicModels.Accurate
	}
	return &AnthropicCompleter{client: client, models: models}
}

// Name implements Completer.
func (a *AnthropicCompleter) Name() string { return "anthropic" }

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := a.models.pick(req.Tier)
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	temp := 0.0

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(req.System),
		Messages:    []anthropic.Message{{Role: "user", Content: req.User}},
		Temperature: &temp,
	})
	if err != nil {
		if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
			return nil, resilience.NewTransientError(err, code)
		}
		return nil, err
	}
	if resp.StopReason == "max_tokens" {
		return nil, resilience.NewError(resilience.KindMalformed, req.Op,
			eris.Errorf("response truncated at %d tokens", maxTokens))
	}

	resp.Usage.LogCost(model, req.Op)
	return &Response{
		Text:  resp.Text(),
		Model: model,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens + resp.Usage.CacheReadInputTokens + resp.Usage.CacheCreationInputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CostUSD:      resp.Usage.EstimateCost(model),
		},
	}, nil
}
