// Package relevance asks a language model which search results are likely
// to list businesses. It fails open: when the model cannot answer, every
// candidate is kept.
package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/llm"
	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/preprocess"
)

const (
	// DefaultTimeout bounds one relevance call.
	DefaultTimeout = 30 * time.Second
	snippetChars   = 300
	maxTokens      = 1024
)

const systemPrompt = `You are an expert at identifying web pages that contain business and company information.

Filter search results down to pages that likely contain:
- Company directories or business listings
- Contact information (email, phone, address)
- Business profiles or company details
- Industry-specific company databases
- B2B platforms with company information

INCLUDE pages that:
1. Are directories, catalogs or databases of companies
2. Contain business listings with contact details
3. Are company profile pages with contact information
4. Are industry-specific databases or marketplaces
5. Mention multiple companies or business contact details

EXCLUDE pages that:
1. Are generic blog posts or news articles that do not list companies
2. Are social media profiles
3. Are job boards without company contacts
4. Are marketing pages without contact info
5. Are Wikipedia or general informational pages
6. Are login pages, signup pages or paywalls

Return ONLY a JSON array of the indices of relevant results, e.g. [0, 2, 4].
If no results are relevant, return [].`

// Filter selects relevant candidates with a Completer.
type Filter struct {
	completer llm.Completer
	timeout   time.Duration
}

// New creates a Filter. A nil completer keeps every candidate; timeout <= 0
// selects DefaultTimeout.
func New(completer llm.Completer, timeout time.Duration) *Filter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Filter{completer: completer, timeout: timeout}
}

// Filter returns the URLs of the candidates judged relevant to query, in the
// order the model listed them. Every failure returns all candidate URLs.
func (f *Filter) Filter(ctx context.Context, candidates []model.Candidate, query string) []string {
	if len(candidates) == 0 {
		return []string{}
	}
	if f.completer == nil {
		zap.L().Warn("relevance: no model configured, keeping all candidates",
			zap.Int("candidates", len(candidates)),
		)
		return allURLs(candidates)
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.completer.Complete(callCtx, llm.Request{
		Op:        "relevance.classify",
		System:    systemPrompt,
		User:      BuildPrompt(candidates, query),
		MaxTokens: maxTokens,
		Tier:      llm.TierFast,
	})
	if err != nil {
		zap.L().Warn("relevance: model call failed, keeping all candidates",
			zap.String("query", query),
			zap.Error(err),
		)
		return allURLs(candidates)
	}

	indices, ok := parseIndices(resp.Text)
	if !ok {
		zap.L().Warn("relevance: response is not a JSON array, keeping all candidates",
			zap.String("query", query),
			zap.String("response", preprocess.Truncate(resp.Text, 200)),
		)
		return allURLs(candidates)
	}

	seen := make(map[int]struct{}, len(indices))
	urls := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(candidates) {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		if u := candidates[i].URL; u != "" {
			urls = append(urls, u)
		}
	}

	zap.L().Info("relevance: filtered candidates",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(urls)),
	)
	return urls
}

// BuildPrompt renders the numbered candidate list shown to the model.
func BuildPrompt(candidates []model.Candidate, query string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User Query: %s\n\nSearch Results:\n", query)
	for i, c := range candidates {
		snippet := c.Content
		if strings.TrimSpace(snippet) == "" {
			snippet = c.Snippet
		}
		snippet = preprocess.Truncate(strings.TrimSpace(snippet), snippetChars)
		if snippet == "" {
			snippet = "No snippet available"
		}
		title := c.Title
		if title == "" {
			title = "No title"
		}
		fmt.Fprintf(&sb, "%d. URL: %s\n   Title: %s\n   Snippet: %s\n\n", i, c.URL, title, snippet)
	}
	sb.WriteString("Which of these are relevant to the query?")
	return sb.String()
}

// parseIndices decodes a JSON array and keeps its integer entries. It
// reports false when text is not a JSON array at all.
func parseIndices(text string) ([]int, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(llm.ExtractJSON(text, '[', ']'))))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, false
	}

	out := make([]int, 0, len(raw))
	for _, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		i, err := n.Int64()
		if err != nil {
			continue
		}
		out = append(out, int(i))
	}
	return out, true
}

func allURLs(candidates []model.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.URL != "" {
			out = append(out, c.URL)
		}
	}
	return out
}
