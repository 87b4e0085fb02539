package prefetch

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS packages (
	url        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	hash       TEXT NOT NULL,
	fetched_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Cache is a persistent url-to-hash store backed by SQLite. Hashes are
// content-derived and urls are version-pinned, so entries never expire.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if needed) the prefetch cache at path.
func OpenCache(ctx context.Context, path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheOpenFailed.Error())
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheOpenFailed.Error())
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, zerr.Wrap(err, domain.ErrCacheOpenFailed.Error())
	}

	return &Cache{db: db}, nil
}

// Get returns the cached SRI hash for url, or "" when absent.
func (c *Cache) Get(ctx context.Context, url string) (string, error) {
	var hash string
	err := c.db.QueryRowContext(ctx, `SELECT hash FROM packages WHERE url = ?`, url).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}
	return hash, nil
}

// Put records the SRI hash for url.
func (c *Cache) Put(ctx context.Context, url, name, hash string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO packages (url, name, hash) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET name = excluded.name, hash = excluded.hash`,
		url, name, hash)
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	return nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
