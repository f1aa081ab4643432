// Package store is the persistence gateway for stickers: a single SQLite
// database opened in WAL mode and migrated on open.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// FileName is the database file name inside the data directory.
const FileName = "stickers.db"

// Store reads and writes sticker rows. All writes are serialized and each
// one is a single transaction.
type Store struct {
	db   *sql.DB
	path string

	// wmu serializes writes and guards last.
	wmu  sync.Mutex
	last int64
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, storageErr("open", 0, fmt.Errorf("create data directory: %w", err))
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr("open", 0, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, storageErr("open", 0, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, storageErr("migrate", 0, err)
	}
	if err := db.QueryRow(`SELECT COALESCE(MAX(updated_at), 0) FROM stickers`).Scan(&s.last); err != nil {
		db.Close()
		return nil, storageErr("open", 0, err)
	}
	_ = os.Chmod(path, 0o600)
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// stamp returns a millisecond timestamp strictly greater than every
// timestamp this store has written. Callers hold wmu.
func (s *Store) stamp() int64 {
	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ms
}

// withTx runs fn in a write transaction under the write lock.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx, ts int64) error) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	prev := s.last
	if err := fn(tx, s.stamp()); err != nil {
		s.last = prev
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		s.last = prev
		return err
	}
	return nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS stickers (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  title      TEXT    NOT NULL DEFAULT '',
		  state      TEXT    NOT NULL DEFAULT 'open',
		  "left"     INTEGER NOT NULL DEFAULT 0,
		  "top"      INTEGER NOT NULL DEFAULT 0,
		  width      INTEGER NOT NULL,
		  height     INTEGER NOT NULL,
		  color      TEXT    NOT NULL DEFAULT 'yellow',
		  type       TEXT    NOT NULL,
		  content    TEXT    NOT NULL DEFAULT '',
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_stickers_created_at ON stickers(created_at);
		CREATE INDEX IF NOT EXISTS idx_stickers_updated_at ON stickers(updated_at);
		CREATE INDEX IF NOT EXISTS idx_stickers_title ON stickers(title);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	if version < 2 {
		has, err := hasColumn(db, "stickers", "top_most")
		if err != nil {
			return err
		}
		if !has {
			if _, err := db.Exec(`ALTER TABLE stickers ADD COLUMN top_most INTEGER NOT NULL DEFAULT 0`); err != nil {
				return fmt.Errorf("migration 2 failed: %w", err)
			}
		}
		if err := setUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
