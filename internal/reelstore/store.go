package reelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelscript/internal/config"
	"reelscript/internal/engagement"
)

// Store manages reel persistence backed by SQLite.
type Store struct {
	db      *sql.DB
	path    string
	weights engagement.Weights
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the reel database.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.DatabasePath
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite db: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
		weights: engagement.Weights{
			Comment: cfg.Engagement.CommentWeight,
			Like:    cfg.Engagement.LikeWeight,
			View:    cfg.Engagement.ViewWeight,
		},
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Weights returns the engagement weights used to order query results.
func (s *Store) Weights() engagement.Weights {
	return s.weights
}

// Health summarizes database state for diagnostics.
type Health struct {
	Path      string `json:"path"`
	Reachable bool   `json:"reachable"`
	Total     int    `json:"total"`
	Usable    int    `json:"usable"`
	Failed    int    `json:"failed"`
	Clients   int    `json:"clients"`
	Saved     int    `json:"saved_scripts"`
	Integrity bool   `json:"integrity_ok"`
}

// CheckHealth pings the database and counts reels by state.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{Path: s.path}
	if s.path == "" {
		return health, errors.New("reel database path is unknown")
	}
	if info, err := os.Stat(s.path); err != nil {
		return health, fmt.Errorf("stat reel database: %w", err)
	} else if info.IsDir() {
		return health, fmt.Errorf("reel database path %q is a directory", s.path)
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(connCtx); err != nil {
		return health, fmt.Errorf("ping reel database: %w", err)
	}
	health.Reachable = true

	row := s.db.QueryRowContext(connCtx, `SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN `+usableClause+` THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN transcript_error IS NOT NULL OR audience_error IS NOT NULL THEN 1 ELSE 0 END), 0)
        FROM reels`)
	if err := row.Scan(&health.Total, &health.Usable, &health.Failed); err != nil {
		return health, fmt.Errorf("count reels: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, `SELECT COUNT(1) FROM client_settings`).Scan(&health.Clients); err != nil {
		return health, fmt.Errorf("count clients: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, `SELECT COUNT(1) FROM saved_scripts`).Scan(&health.Saved); err != nil {
		return health, fmt.Errorf("count saved scripts: %w", err)
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.Integrity = strings.EqualFold(integrity, "ok")
	return health, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
