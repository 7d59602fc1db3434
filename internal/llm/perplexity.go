package llm

import (
	"context"

	"github.com/sells-group/company-finder/pkg/perplexity"
)

// DefaultPerplexityModels are used when configuration leaves models empty.
var DefaultPerplexityModels = Models{
	Fast:     "sonar",
	Accurate: "sonar-pro",
}

// PerplexityCompleter runs completions on Perplexity chat completions.
type PerplexityCompleter struct {
	client perplexity.Client
	models Models
}

// NewPerplexity creates a completer; empty model fields fall back to defaults.
func NewPerplexity(client perplexity.Client, models Models) *PerplexityCompleter {
	if models.Fast == "" {
		models.Fast = DefaultPerplexityModels.Fast
	}
	if models.Accurate == "" {
		models.Accurate = DefaultPerplexityModels.Accurate
	}
	return &PerplexityCompleter{client: client, models: models}
}

// Name implements Completer.
func (p *PerplexityCompleter) Name() string { return "perplexity" }

// Complete implements Completer.
func (p *PerplexityCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := p.models.pick(req.Tier)
	temp := 0.0
	msgs := make([]perplexity.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, perplexity.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, perplexity.Message{Role: "user", Content: req.User})

	in := perplexity.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: &temp,
	}
	if req.MaxTokens > 0 {
		in.MaxTokens = &req.MaxTokens
	}

	resp, err := p.client.ChatCompletion(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Response{
		Text:  resp.Text(),
		Model: model,
		Usage: Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}, nil
}
