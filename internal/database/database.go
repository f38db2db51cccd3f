// Package database provides the sqlite store backing the metadata
// response cache.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open opens (creating if needed) the sqlite database at path and runs
// any pending migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Cache is a TTL'd key/payload store for provider responses. A nil
// *Cache is valid and behaves as a permanent miss.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewCache wraps db with the given entry TTL.
func NewCache(db *sql.DB, ttl time.Duration) *Cache {
	return &Cache{db: db, ttl: ttl}
}

// Get returns the cached payload for key if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil || c.db == nil {
		return nil, false
	}

	var payload []byte
	err := c.db.QueryRow(
		"SELECT payload FROM metadata_cache WHERE key = ? AND expires_at > ?",
		key, time.Now().Unix(),
	).Scan(&payload)
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Put stores payload under key, replacing any previous entry.
func (c *Cache) Put(key string, payload []byte) error {
	if c == nil || c.db == nil {
		return nil
	}

	_, err := c.db.Exec(
		"INSERT INTO metadata_cache (key, payload, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at",
		key, payload, time.Now().Add(c.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Prune deletes expired entries.
func (c *Cache) Prune() error {
	if c == nil || c.db == nil {
		return nil
	}

	_, err := c.db.Exec("DELETE FROM metadata_cache WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache prune: %w", err)
	}
	return nil
}
