// Package llm puts the language-model providers behind one small interface
// used by the relevance and extraction adapters.
package llm

import "context"

// Tier selects a model class. Relevance runs on the fast tier, extraction on
// the accurate tier.
type Tier string

const (
	TierFast     Tier = "fast"
	TierAccurate Tier = "accurate"
)

// Request is a single-turn completion.
type Request struct {
	// Op names the calling operation for logs and error classification.
	Op        string
	System    string
	User      string
	MaxTokens int
	Tier      Tier
}

// Usage reports token consumption for one completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Response is the text of a completion.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Completer produces a completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Models maps tiers to provider model IDs.
type Models struct {
	Fast     string `yaml:"fast" mapstructure:"fast"`
	Accurate string `yaml:"accurate" mapstructure:"accurate"`
}

func (m Models) pick(t Tier) string {
	if t == TierAccurate && m.Accurate != "" {
		return m.Accurate
	}
	if m.Fast != "" {
		return m.Fast
	}
	return m.Accurate
}
