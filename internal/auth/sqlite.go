package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// SQLiteBackend persists the session in a small sqlite file so it survives
// restarts of the client.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the session database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS local_storage (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate session db: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Get returns the value stored under key.
func (b *SQLiteBackend) Get(key string) (string, bool, error) {
	var v string
	err := b.db.QueryRow(`SELECT v FROM local_storage WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetAll writes every key in one transaction.
func (b *SQLiteBackend) SetAll(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return b.inTx(func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO local_storage (k, v) VALUES (?, ?)`, k, values[k]); err != nil {
				return fmt.Errorf("failed to write %s: %w", k, err)
			}
		}
		return nil
	})
}

// Delete removes keys in one transaction.
func (b *SQLiteBackend) Delete(keys ...string) error {
	return b.inTx(func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(`DELETE FROM local_storage WHERE k = ?`, k); err != nil {
				return fmt.Errorf("failed to delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) inTx(fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
