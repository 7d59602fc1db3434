package crawl

import (
	"net/url"
	"strings"

	"github.com/sells-group/company-finder/internal/model"
)

// Cursor tracks one seed's position in a paginated listing. The URL
// returned by Next has never been returned before, so a traversal driven by
// a Cursor terminates even when pages link to each other in a cycle.
type Cursor struct {
	current  string
	visited  map[string]struct{}
	depth    int
	maxDepth int
}

// NewCursor starts at seed and allows at most maxDepth pages.
func NewCursor(seed string, maxDepth int) *Cursor {
	return &Cursor{
		current:  strings.TrimSpace(seed),
		visited:  make(map[string]struct{}),
		maxDepth: maxDepth,
	}
}

// Next returns the URL to fetch and marks it visited. ok is false when the
// traversal is over: no current URL, the URL was already visited, or the
// depth budget is spent.
func (c *Cursor) Next() (string, bool) {
	if c.current == "" || c.depth >= c.maxDepth || c.Visited(c.current) {
		return "", false
	}
	u := c.current
	c.visited[model.NormalizeURL(u)] = struct{}{}
	c.depth++
	c.current = ""
	return u, true
}

// Advance sets the next page from a raw next-page link resolved against
// base. It returns a non-empty reason when the link is not followed.
func (c *Cursor) Advance(base, next string) string {
	next = strings.TrimSpace(next)
	if next == "" {
		return "no next page"
	}
	resolved, err := resolve(base, next)
	if err != nil {
		return "unresolvable next page url"
	}
	if !model.IsHTTP(resolved) {
		return "next page url is not http(s)"
	}
	if c.Visited(resolved) {
		return "next page already visited"
	}
	c.current = resolved
	return ""
}

// MarkVisited records u as fetched without spending depth. Used for the
// final URL of a redirected fetch.
func (c *Cursor) MarkVisited(u string) {
	if u = strings.TrimSpace(u); u != "" {
		c.visited[model.NormalizeURL(u)] = struct{}{}
	}
}

// Visited reports whether u, after normalization, was already fetched.
func (c *Cursor) Visited(u string) bool {
	_, ok := c.visited[model.NormalizeURL(u)]
	return ok
}

// Depth is the number of pages handed out by Next.
func (c *Cursor) Depth() int { return c.depth }

// Current is the URL Next will return, or "".
func (c *Cursor) Current() string { return c.current }

func resolve(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
