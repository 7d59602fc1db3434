package pipeline

import (
	"sync"

	"github.com/sells-group/company-finder/internal/model"
)

// StatusBoard holds one CrawlStatus per URL in registration order. It is
// safe for concurrent use by the seed workers. A terminal status is never
// replaced.
type StatusBoard struct {
	mu     sync.Mutex
	order  []string
	byURL  map[string]model.CrawlStatus
	notify func(model.CrawlStatus)
}

// NewStatusBoard creates an empty board. notify, when non-nil, is called
// with every accepted update while the board lock is held.
func NewStatusBoard(notify func(model.CrawlStatus)) *StatusBoard {
	return &StatusBoard{byURL: make(map[string]model.CrawlStatus), notify: notify}
}

// Publish records s. It returns false when the URL already holds a terminal
// status.
func (b *StatusBoard) Publish(s model.CrawlStatus) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.byURL[s.URL]
	if ok && prev.Status.Terminal() {
		return false
	}
	if !ok {
		b.order = append(b.order, s.URL)
	}
	b.byURL[s.URL] = s
	if b.notify != nil {
		b.notify(s)
	}
	return true
}

// Get returns the status of url.
func (b *StatusBoard) Get(url string) (model.CrawlStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.byURL[url]
	return s, ok
}

// Snapshot copies every status in registration order.
func (b *StatusBoard) Snapshot() []model.CrawlStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.CrawlStatus, 0, len(b.order))
	for _, u := range b.order {
		out = append(out, b.byURL[u])
	}
	return out
}
