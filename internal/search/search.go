// Package search turns a free-text query into candidate pages using Jina
// Search and Google Places.
package search

import (
	"context"
	"strings"

	"github.com/sells-group/company-finder/internal/model"
)

// Provider returns up to limit candidates for query. country is optional.
type Provider interface {
	Search(ctx context.Context, query string, limit int, country string) ([]model.Candidate, error)
	Name() string
}

// DefaultBlockedDomains are hosts that never list businesses in a form the
// extractor can use.
var DefaultBlockedDomains = []string{
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"twitter.com",
	"x.com",
	"youtube.com",
	"tiktok.com",
	"pinterest.com",
	"reddit.com",
	"wikipedia.org",
}

// Blocklist matches hosts against a set of domains, including subdomains.
type Blocklist struct {
	domains map[string]struct{}
}

// NewBlocklist builds a blocklist from domains. Entries are lowercased and a
// leading "www." is ignored.
func NewBlocklist(domains []string) *Blocklist {
	b := &Blocklist{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			b.domains[d] = struct{}{}
		}
	}
	return b
}

// Blocked reports whether rawURL's host is a blocked domain or one of its
// subdomains.
func (b *Blocklist) Blocked(rawURL string) bool {
	if b == nil || len(b.domains) == 0 {
		return false
	}
	host := model.Host(rawURL)
	for host != "" {
		if _, ok := b.domains[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}

// Dedup drops candidates without a URL and keeps the first candidate for each
// normalized URL.
func Dedup(candidates []model.Candidate) []model.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.URL = strings.TrimSpace(c.URL)
		key := model.NormalizeURL(c.URL)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// withCountry appends country to query unless the query already mentions it.
func withCountry(query, country string) string {
	country = strings.TrimSpace(country)
	if country == "" || strings.Contains(strings.ToLower(query), strings.ToLower(country)) {
		return query
	}
	return query + " " + country
}
