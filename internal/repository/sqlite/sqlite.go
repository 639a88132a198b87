// Package sqlite implements repository.KeyValueStore on an embedded SQLite file.
//
// WHY SQLITE FOR TWO KEYS?
// The session has to outlive a restart the same way a browser's localStorage
// outlives a reload. SQLite gives that durability as a single file next to the
// binary, with no server to run. modernc.org/sqlite is pure Go, so the portal
// still cross-compiles without a C toolchain.
//
// Use ":memory:" in tests; the store then vanishes when the DB is closed.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool. It implements repository.KeyValueStore (see kv.go).
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/portal.db" → file-based, the parent directory is created
//   - ":memory:"       → in-memory, for tests
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: creating %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces the first connection so a bad path fails here, not on the
	// first session write.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// An in-memory database is per connection. Pin the pool to one so every
	// query sees the same tables.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// WAL lets page requests read the session while a login is writing it.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool. Defer it right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate is idempotent: CREATE TABLE IF NOT EXISTS never fails on a second run.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}
