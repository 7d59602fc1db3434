package model

import (
	"strings"

	"github.com/sells-group/company-finder/internal/resilience"
)

const (
	// DefaultLimit applies when a request omits limit.
	DefaultLimit = 10
	// MaxLimit bounds the number of companies a single request may ask for.
	MaxLimit = 100
)

// SearchRequest asks for up to Limit companies matching Query.
type SearchRequest struct {
	Query   string `json:"query" yaml:"query"`
	Limit   int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Validate trims the request, applies the default limit, and rejects an
// empty query or an out-of-range limit.
func (r *SearchRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	r.Country = strings.TrimSpace(r.Country)
	if r.Query == "" {
		return resilience.Validationf("query must not be empty")
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit < 1 {
		return resilience.Validationf("limit must be at least 1, got %d", r.Limit)
	}
	if r.Limit > MaxLimit {
		return resilience.Validationf("limit must be at most %d, got %d", MaxLimit, r.Limit)
	}
	return nil
}

// SearchResponse carries the deduplicated companies of one request.
type SearchResponse struct {
	Results        []Company `json:"results" yaml:"results"`
	TotalCompanies int       `json:"total_companies" yaml:"total_companies"`
}

// NewSearchResponse wraps results, keeping TotalCompanies consistent.
func NewSearchResponse(results []Company) SearchResponse {
	if results == nil {
		results = []Company{}
	}
	return SearchResponse{Results: results, TotalCompanies: len(results)}
}

// EnrichRequest asks to fill in details for already-known companies.
type EnrichRequest struct {
	Companies []Company `json:"companies" yaml:"companies"`
	Country   string    `json:"country,omitempty" yaml:"country,omitempty"`
}

// Validate rejects an empty batch, a batch over MaxLimit, or an entry without a name.
func (r *EnrichRequest) Validate() error {
	r.Country = strings.TrimSpace(r.Country)
	if len(r.Companies) == 0 {
		return resilience.Validationf("companies must not be empty")
	}
	if len(r.Companies) > MaxLimit {
		return resilience.Validationf("at most %d companies per request, got %d", MaxLimit, len(r.Companies))
	}
	for i, c := range r.Companies {
		if !c.Valid() {
			return resilience.Validationf("companies[%d]: name must not be empty", i)
		}
		r.Companies[i] = c.Normalize()
	}
	return nil
}
