package cache

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`

// SQLiteCache stores entries in one SQLite database file. expires_at holds
// Unix nanoseconds, 0 meaning no expiry.
type SQLiteCache struct {
	db    *sql.DB
	path  string
	clock clockwork.Clock
}

// SQLitePath returns the default database file in dir.
func SQLitePath(dir string) string { return filepath.Join(dir, "cache.db") }

// NewSQLiteCache opens or creates the database at path.
func NewSQLiteCache(path string, opts ...Option) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, backendError("sqlite", "create dir", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, backendError("sqlite", "open", err)
	}
	// One connection serialises writers; SQLite locks the file anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, backendError("sqlite", "create schema", err)
	}
	o := applyOptions(opts)
	return &SQLiteCache{db: db, path: path, clock: o.clock}, nil
}

// Path returns the database file.
func (c *SQLiteCache) Path() string { return c.path }

// Get implements [Cache]. Expired rows are deleted on read.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data    []byte
		expires int64
	)
	err := c.db.QueryRowContext(ctx, `SELECT data, expires_at FROM entries WHERE key = ?`, key).Scan(&data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, backendError("sqlite", "get", err)
	}
	if expires != 0 && c.clock.Now().UnixNano() > expires {
		_, _ = c.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
		return nil, false, nil
	}
	return data, true, nil
}

// Set implements [Cache].
func (c *SQLiteCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = c.clock.Now().Add(ttl).UnixNano()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO entries (key, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, data, expires)
	return backendError("sqlite", "set", err)
}

// Delete implements [Cache].
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
	return backendError("sqlite", "delete", err)
}

// Clear implements [Clearer].
func (c *SQLiteCache) Clear(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, backendError("sqlite", "clear", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close implements [Cache].
func (c *SQLiteCache) Close() error { return c.db.Close() }

var (
	_ Cache   = (*SQLiteCache)(nil)
	_ Clearer = (*SQLiteCache)(nil)
)
