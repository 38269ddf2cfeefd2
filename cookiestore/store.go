// Package cookiestore persists the Amazon session cookie between runs.
//
// The store holds one opaque value per key together with its expiry. Core
// packages never touch it; callers load the value and pass it along.
package cookiestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DefaultKey is the key the session cookie is stored under.
const DefaultKey = "amazon-link-card:cookie"

// DefaultExpiryDays applies when Save is given a non-positive expiry.
const DefaultExpiryDays = 365

// Entry is a stored value with its timestamps.
type Entry struct {
	Value     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Store is a SQLite-backed keyed credential store.
type Store struct {
	db   *sql.DB
	path string
	key  string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKey stores values under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store backed by the database at path.
// Use ":memory:" for an in-memory database.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, key: DefaultKey, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the database connection and creates the schema if needed.
func (s *Store) Open() error {
	conn, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL mode is not supported for in-memory databases.
	if s.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
	`); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = conn
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores value, replacing any previous one, valid for expiryDays days.
func (s *Store) Save(ctx context.Context, value string, expiryDays int) error {
	if expiryDays <= 0 {
		expiryDays = DefaultExpiryDays
	}
	now := s.now()
	expiresAt := now.Add(time.Duration(expiryDays) * 24 * time.Hour)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`, s.key, value, expiresAt.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("cookiestore: save: %w", err)
	}
	return nil
}

// Load returns the stored value. An expired value is deleted and reported
// as absent.
func (s *Store) Load(ctx context.Context) (string, bool, error) {
	e, ok, err := s.Entry(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	return e.Value, true, nil
}

// Entry is Load with timestamps.
func (s *Store) Entry(ctx context.Context) (Entry, bool, error) {
	var (
		value              string
		expiresAt, created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at, created_at FROM credentials WHERE key = ?`, s.key,
	).Scan(&value, &expiresAt, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cookiestore: load: %w", err)
	}

	if s.now().UnixMilli() > expiresAt {
		if err := s.Delete(ctx); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}

	return Entry{
		Value:     value,
		ExpiresAt: time.UnixMilli(expiresAt),
		CreatedAt: time.UnixMilli(created),
	}, true, nil
}

// Delete removes the stored value. Deleting an absent value is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("cookiestore: delete: %w", err)
	}
	return nil
}
