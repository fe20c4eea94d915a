// Package session persists conversation state across chat turns.
package session

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealfinder-cli/internal/config"
	"github.com/sells-group/dealfinder-cli/internal/model"
)

// Store defines the persistence interface for per-thread session state.
type Store interface {
	// Get returns the state for a thread, or nil when the thread has no
	// stored state or the state has expired.
	Get(ctx context.Context, threadID string) (*model.SessionState, error)
	// Put stores or replaces the state for a thread.
	Put(ctx context.Context, state *model.SessionState) error
	// Delete removes a thread's state. Deleting a missing thread is not
	// an error.
	Delete(ctx context.Context, threadID string) error
	// DeleteExpired removes all expired sessions and reports how many
	// were removed.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig, ttl time.Duration) (Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemory(ttl), nil
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL, ttl)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, ttl, nil)
	default:
		return nil, eris.Errorf("session: unknown store driver %q", cfg.Driver)
	}
}

// expiry returns the expiration time for a session written now, or the
// zero time when sessions never expire.
func expiry(ttl time.Duration, now time.Time) time.Time {
	if ttl == 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
