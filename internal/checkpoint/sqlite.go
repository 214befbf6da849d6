package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a durable single-file Store for deployments without Redis.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex

	now func() time.Time
}

// NewSQLite opens (or creates) the database at path. Use ":memory:" for
// tests.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		session_id TEXT PRIMARY KEY,
		state BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checkpoints_expires ON checkpoints(expires_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, sessionID string, state []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoints (session_id, state, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, state, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("store checkpoint: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM checkpoints WHERE session_id = ? AND expires_at > ?`,
		sessionID, s.now().Unix(),
	).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return state, nil
}

// ListActive implements Store.
func (s *SQLite) ListActive(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM checkpoints WHERE expires_at > ? ORDER BY created_at`,
		s.now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TTLRemaining implements TTLReporter.
func (s *SQLite) TTLRemaining(ctx context.Context, sessionID string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM checkpoints WHERE session_id = ?`,
		sessionID,
	).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("checkpoint ttl: %w", err)
	}
	remaining := time.Unix(expiresAt, 0).Sub(s.now())
	if remaining <= 0 {
		return 0, ErrNotFound
	}
	return remaining, nil
}

// PurgeExpired removes expired rows. SQLite has no server-side expiry, so
// the CLI calls this opportunistically before listing.
func (s *SQLite) PurgeExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE expires_at <= ?`, s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge checkpoints: %w", err)
	}
	return res.RowsAffected()
}

// Close implements Store.
func (s *SQLite) Close() error { return s.db.Close() }
