package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/ssc-portal/internal/repository"
)

// compile-time check that *DB implements repository.KeyValueStore
var _ repository.KeyValueStore = (*DB)(nil)

func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: reading %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts the key or overwrites its value.
func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s: %w", key, err)
	}
	return nil
}

// Delete removes every given key in one transaction.
func (db *DB) Delete(ctx context.Context, keys ...string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("sqlite: deleting %s: %w", key, err)
		}
	}
	return tx.Commit()
}
