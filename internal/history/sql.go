package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/comigor/ideavault/internal/config"
	"github.com/comigor/ideavault/internal/session"
)

type dialect struct {
	driverName       string
	schema           []string
	insertUser       string
	insertSubmission string
	selectSession    string
}

var dialects = map[string]dialect{
	"postgres": {
		driverName: "pgx",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id SERIAL PRIMARY KEY,
				uuid VARCHAR(36) UNIQUE,
				timestamp TIMESTAMPTZ
			);`,
			`CREATE TABLE IF NOT EXISTS submissions (
				id SERIAL PRIMARY KEY,
				uuid VARCHAR(36),
				timestamp TIMESTAMPTZ,
				role VARCHAR(9) CHECK (LENGTH(role) >= 4),
				content TEXT,
				FOREIGN KEY (uuid) REFERENCES users(uuid)
			);`,
		},
		insertUser:       `INSERT INTO users (uuid, timestamp) VALUES ($1, $2) ON CONFLICT (uuid) DO NOTHING;`,
		insertSubmission: `INSERT INTO submissions (uuid, timestamp, role, content) VALUES ($1, $2, $3, $4);`,
		selectSession:    `SELECT id, uuid, timestamp, role, content FROM submissions WHERE uuid = $1 ORDER BY timestamp, id;`,
	},
	"sqlite": {
		driverName: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				uuid VARCHAR(36) UNIQUE,
				timestamp TIMESTAMP
			);`,
			`CREATE TABLE IF NOT EXISTS submissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				uuid VARCHAR(36),
				timestamp TIMESTAMP,
				role VARCHAR(9) CHECK (LENGTH(role) >= 4),
				content TEXT,
				FOREIGN KEY (uuid) REFERENCES users(uuid)
			);`,
		},
		insertUser:       `INSERT INTO users (uuid, timestamp) VALUES (?, ?) ON CONFLICT (uuid) DO NOTHING;`,
		insertSubmission: `INSERT INTO submissions (uuid, timestamp, role, content) VALUES (?, ?, ?, ?);`,
		selectSession:    `SELECT id, uuid, timestamp, role, content FROM submissions WHERE uuid = ? ORDER BY timestamp, id;`,
	},
}

var _ Sink = (*SQLStore)(nil)

// SQLStore writes submissions to sqlite or postgres through database/sql.
type SQLStore struct {
	db          *sql.DB
	dialect     dialect
	schemaReady atomic.Bool
}

// OpenSQL opens (but does not ping) the database described by cfg.
func OpenSQL(cfg config.DatabaseConfig) (*SQLStore, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	dsn := cfg.DSN
	if cfg.Driver == "sqlite" && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_time_format=sqlite"
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// one writer keeps sqlite from reporting SQLITE_BUSY under load
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	s.schemaReady.Store(true)
	return nil
}

func (s *SQLStore) Record(ctx context.Context, sessionID string, role session.Role, content string) error {
	if !s.schemaReady.Load() {
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.insertUser, sessionID, now); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.insertSubmission, sessionID, now, string(role), content); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

func (s *SQLStore) Submissions(ctx context.Context, sessionID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.selectSession, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var ts any
		if err := rows.Scan(&sub.ID, &sub.SessionID, &ts, &sub.Role, &sub.Content); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Timestamp = asTime(ts)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// sqlite hands timestamps back either parsed or as text depending on how
// they were written.
func asTime(v any) time.Time {
	var raw string
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return time.Time{}
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
