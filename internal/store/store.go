// Package store persists the run log and the fetched-page cache.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/company-finder/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for discovery runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, req model.SearchRequest) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID, message string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error)

	// Page cache. GetCachedPage returns nil, nil on a miss or an expired entry.
	GetCachedPage(ctx context.Context, url string) (*model.Page, error)
	SetCachedPage(ctx context.Context, page model.Page, ttl time.Duration) error
	DeleteExpiredPages(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(f model.RunFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
