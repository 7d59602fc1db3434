// Package extract turns a fetched page into company records and a
// next-page link with a language model. It fails closed: any failure of a
// single call yields an empty extraction.
package extract

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/llm"
	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/resilience"
)

// DefaultTimeout bounds one extraction call.
const DefaultTimeout = 90 * time.Second

const (
	listingMaxTokens = 8192
	enrichMaxTokens  = 2048
)

// Input is one page prepared for extraction.
type Input struct {
	URL      string
	Content  string
	Elements string
	Query    string
}

// Extraction is the result for one page. Companies is never nil.
type Extraction struct {
	Companies          []model.Company
	NextPageURL        string
	PaginationSelector string
}

// Adapter calls a Completer to extract companies.
type Adapter struct {
	completer llm.Completer
	timeout   time.Duration
}

// New creates an Adapter. A nil completer makes every extraction empty;
// timeout <= 0 selects DefaultTimeout.
func New(completer llm.Completer, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{completer: completer, timeout: timeout}
}

// Extract returns the companies on a page and its pagination hints. It never
// fails; collaborator errors are logged and produce an empty Extraction.
func (a *Adapter) Extract(ctx context.Context, in Input) Extraction {
	empty := Extraction{Companies: []model.Company{}}
	if a.completer == nil {
		zap.L().Warn("extract: no model configured, returning empty extraction", zap.String("url", in.URL))
		return empty
	}

	text, err := a.complete(ctx, "extract.listing", listingSystemPrompt, buildListingPrompt(in), listingMaxTokens)
	if err != nil {
		zap.L().Warn("extract: model call failed",
			zap.String("url", in.URL),
			zap.String("kind", string(resilience.KindOf(err))),
			zap.Error(err),
		)
		return empty
	}

	out, err := decode(text)
	if err != nil {
		zap.L().Warn("extract: malformed model response",
			zap.String("url", in.URL),
			zap.String("kind", string(resilience.KindMalformed)),
			zap.Error(err),
		)
		return empty
	}

	zap.L().Debug("extract: page extracted",
		zap.String("url", in.URL),
		zap.Int("companies", len(out.Companies)),
		zap.String("next_page_url", out.NextPageURL),
	)
	return out
}

// Enrich asks for the details of one named company on a page and returns the
// record that best matches it. ok is false when the call failed or nothing
// on the page matches.
func (a *Adapter) Enrich(ctx context.Context, company model.Company, content, country string) (model.Company, bool) {
	if a.completer == nil || !company.Valid() || strings.TrimSpace(content) == "" {
		return model.Company{}, false
	}

	text, err := a.complete(ctx, "extract.enrich", enrichSystemPrompt, buildEnrichPrompt(company, content, country), enrichMaxTokens)
	if err != nil {
		zap.L().Warn("extract: enrich call failed",
			zap.String("company", company.Name),
			zap.Error(err),
		)
		return model.Company{}, false
	}

	out, err := decode(text)
	if err != nil {
		zap.L().Warn("extract: malformed enrich response",
			zap.String("company", company.Name),
			zap.Error(err),
		)
		return model.Company{}, false
	}
	return bestMatch(company, out.Companies)
}

func (a *Adapter) complete(ctx context.Context, op, system, user string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.completer.Complete(callCtx, llm.Request{
		Op:        op,
		System:    system,
		User:      user,
		MaxTokens: maxTokens,
		Tier:      llm.TierAccurate,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// bestMatch prefers an identity-key match, then an equal folded name, then
// the first record whose folded name contains the requested one.
func bestMatch(want model.Company, records []model.Company) (model.Company, bool) {
	key := model.IdentityKey(want)
	name := model.FoldName(want.Name)

	for _, r := range records {
		if model.IdentityKey(r) == key {
			return r, true
		}
	}
	for _, r := range records {
		if model.FoldName(r.Name) == name {
			return r, true
		}
	}
	for _, r := range records {
		if strings.Contains(model.FoldName(r.Name), name) {
			return r, true
		}
	}
	return model.Company{}, false
}
