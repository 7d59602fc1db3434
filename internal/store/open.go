package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// DefaultSQLitePath is used when the sqlite driver has no database URL.
const DefaultSQLitePath = "finder.db"

// Open connects to the configured backend and migrates it. The none driver
// returns a nil Store and no error; callers run without a run log or cache.
func Open(ctx context.Context, driver, databaseURL string, poolCfg *PoolConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		if databaseURL == "" {
			databaseURL = DefaultSQLitePath
		}
		s, err = NewSQLite(databaseURL)
	case DriverPostgres:
		if databaseURL == "" {
			return nil, eris.New("store: postgres driver requires a database_url")
		}
		s, err = NewPostgres(ctx, databaseURL, poolCfg)
	case DriverNone:
		return nil, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
