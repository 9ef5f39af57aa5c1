// Package cache provides a SQLite snapshot cache of raw feed bodies.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores the last fetched body of each feed location.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Snapshot describes one cached feed body.
type Snapshot struct {
	Location  string    `json:"location"`
	Size      int       `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// New creates a new Cache with the given database path.
// Use ":memory:" for an in-memory database (useful for testing).
// Snapshots older than ttl are treated as missing.
func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, ttl: ttl, now: time.Now}

	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		location TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	`

	_, err := c.db.Exec(schema)
	return err
}

// Get returns the cached body for location if it is present and fresh.
func (c *Cache) Get(location string) (string, bool) {
	var body string
	var fetchedAt int64

	err := c.db.QueryRow(
		"SELECT body, fetched_at FROM snapshots WHERE location = ?",
		location,
	).Scan(&body, &fetchedAt)
	if err != nil {
		return "", false
	}

	if c.now().Sub(time.Unix(0, fetchedAt)) > c.ttl {
		return "", false
	}

	return body, true
}

// Put stores body as the latest snapshot for location.
func (c *Cache) Put(location, body string) error {
	_, err := c.db.Exec(
		`INSERT INTO snapshots (location, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(location) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		location, body, c.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %w", location, err)
	}
	return nil
}

// List returns metadata for every snapshot, fresh or not, ordered by location.
func (c *Cache) List() ([]Snapshot, error) {
	rows, err := c.db.Query("SELECT location, length(body), fetched_at FROM snapshots ORDER BY location")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		var fetchedAt int64
		if err := rows.Scan(&s.Location, &s.Size, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.FetchedAt = time.Unix(0, fetchedAt)
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// Clear deletes every snapshot and returns how many were removed.
func (c *Cache) Clear() (int64, error) {
	result, err := c.db.Exec("DELETE FROM snapshots")
	if err != nil {
		return 0, fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return result.RowsAffected()
}
