// Package history logs every conversation message to a relational store,
// keyed by the session id. Writes are best effort: callers log a failed
// Record and carry on, so the store may lag behind what the browser saw.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/comigor/ideavault/internal/config"
	"github.com/comigor/ideavault/internal/logger"
	"github.com/comigor/ideavault/internal/session"
)

// Sink receives every message of every session.
type Sink interface {
	// EnsureSchema creates the users and submissions tables if absent.
	EnsureSchema(ctx context.Context) error
	// Record upserts the session row and inserts the message row in one
	// transaction.
	Record(ctx context.Context, sessionID string, role session.Role, content string) error
	// Submissions reads back the rows of one session, oldest first.
	Submissions(ctx context.Context, sessionID string) ([]Submission, error)
	Close() error
}

var errRoleLength = errors.New("role must be between 4 and 9 characters")

func checkRole(role session.Role) error {
	if n := len(role); n < 4 || n > 9 {
		return fmt.Errorf("%w: %q", errRoleLength, role)
	}
	return nil
}

// Open returns the configured store. An empty DSN, or a DSN the driver
// refuses outright, yields an in-memory store so the chat keeps working.
// An unreachable database still gets a SQL store: its writes fail and are
// logged until the database comes back.
func Open(ctx context.Context, cfg config.DatabaseConfig) Sink {
	if cfg.DSN == "" {
		logger.L.Info("no database configured; keeping submissions in memory")
		return NewMemoryStore()
	}

	store, err := OpenSQL(cfg)
	if err != nil {
		logger.L.Warn("database open failed; keeping submissions in memory", "driver", cfg.Driver, "error", err)
		return NewMemoryStore()
	}
	if err := store.Ping(ctx); err != nil {
		logger.L.Warn("database unreachable; submissions will be dropped until it recovers", "driver", cfg.Driver, "error", err)
		return store
	}
	logger.L.Info("submissions database connected", "driver", cfg.Driver)
	return store
}
