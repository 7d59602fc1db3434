package scrape

import (
	"net/url"
	"path"
	"strings"
)

// DefaultExcludePatterns skip links that point at documents or media rather
// than listing pages.
var DefaultExcludePatterns = []string{
	"*.pdf",
	"*.zip",
	"*.doc",
	"*.docx",
	"*.xls",
	"*.xlsx",
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"*.mp4",
	"/wp-content/uploads/*",
}

// PathMatcher filters URLs by glob patterns. A pattern starting with "/" is
// matched against the whole path ("/wp-content/uploads/*" also covers deeper
// paths); any other pattern is matched against the last path segment.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher. A nil slice selects the defaults; an
// empty non-nil slice excludes nothing.
func NewPathMatcher(patterns []string) *PathMatcher {
	if patterns == nil {
		patterns = DefaultExcludePatterns
	}
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &PathMatcher{patterns: lowered}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return m.patterns
}

// IsExcluded reports whether rawURL matches any pattern. Unparsable URLs are
// excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	if m == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	base := path.Base(p)
	for _, pattern := range m.patterns {
		if strings.HasPrefix(pattern, "/") {
			if matchPrefix(pattern, p) {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// matchPrefix lets "/dir/*" match "/dir/a/b" as well as "/dir/a".
func matchPrefix(pattern, p string) bool {
	if ok, _ := path.Match(pattern, p); ok {
		return true
	}
	if dir, ok := strings.CutSuffix(pattern, "/*"); ok {
		return p == dir || strings.HasPrefix(p, dir+"/")
	}
	return false
}
