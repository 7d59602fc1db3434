package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/pkg/jina"
)

// JinaProvider searches the web through Jina Search.
type JinaProvider struct {
	client jina.Client
}

// NewJinaProvider creates a provider backed by client.
func NewJinaProvider(client jina.Client) *JinaProvider {
	return &JinaProvider{client: client}
}

// Name implements Provider.
func (p *JinaProvider) Name() string { return "jina" }

// Search implements Provider. The country is folded into the query text and,
// when it is a two-letter code, also passed as the gl parameter.
func (p *JinaProvider) Search(ctx context.Context, query string, limit int, country string) ([]model.Candidate, error) {
	var opts []jina.SearchOption
	if limit > 0 {
		opts = append(opts, jina.WithNum(limit))
	}
	if code := regionCode(country); code != "" {
		opts = append(opts, jina.WithCountry(code))
	}

	resp, err := p.client.Search(ctx, withCountry(query, country), opts...)
	if err != nil {
		return nil, eris.Wrap(err, "search: jina")
	}

	out := make([]model.Candidate, 0, len(resp.Data))
	for _, r := range resp.Data {
		out = append(out, model.Candidate{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Description,
			Content: r.Content,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
