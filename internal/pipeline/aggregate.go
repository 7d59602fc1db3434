package pipeline

import (
	"sync"

	"github.com/sells-group/company-finder/internal/model"
)

// Aggregator deduplicates companies by identity key, keeping first-seen
// order. A record whose key was already seen only fills empty fields of the
// earlier record; the earlier name and source_url stay. Safe for
// concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	index   map[string]int
	results []model.Company
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[string]int)}
}

// Add merges companies in order. Invalid records are dropped. It returns the
// number of new identities added.
func (a *Aggregator) Add(companies ...model.Company) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	added := 0
	for _, c := range companies {
		c = c.Normalize()
		if !c.Valid() {
			continue
		}
		key := model.IdentityKey(c)
		if i, ok := a.index[key]; ok {
			a.results[i] = a.results[i].FillGaps(c)
			continue
		}
		a.index[key] = len(a.results)
		a.results = append(a.results, c)
		added++
	}
	return added
}

// Len is the number of distinct companies.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// Results copies the merged companies in first-seen order.
func (a *Aggregator) Results() []model.Company {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Company, len(a.results))
	copy(out, a.results)
	return out
}

// Dedup merges companies with a fresh Aggregator.
func Dedup(companies []model.Company) []model.Company {
	agg := NewAggregator()
	agg.Add(companies...)
	return agg.Results()
}
