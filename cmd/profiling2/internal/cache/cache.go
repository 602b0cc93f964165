// Package cache persists already-decoded ParsedRecording blobs across CLI
// invocations in a local SQLite database, keyed by (saved-variables file
// content hash, recording index). The in-process memoization in
// schema.RecordingData lives only as long as the Recording value does; this
// cache extends that memoization across separate process runs against the
// same saved-variables export.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/emallson/profiling2-decode/internal/schema"
)

// Cache wraps a SQLite database of decoded recordings.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	const schemaDDL = `
CREATE TABLE IF NOT EXISTS parsed_recordings (
	file_hash       TEXT NOT NULL,
	recording_index INTEGER NOT NULL,
	parsed_json     BLOB NOT NULL,
	PRIMARY KEY (file_hash, recording_index)
)`
	if _, err := db.ExecContext(context.Background(), schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }

// HashFile returns the hex-encoded SHA-256 hash identifying a
// saved-variables file's contents for cache-key purposes.
func HashFile(contents []byte) string {
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached ParsedRecording for (fileHash, index), or
// (nil, false, nil) on a cache miss.
func (c *Cache) Get(ctx context.Context, fileHash string, index int) (*schema.ParsedRecording, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT parsed_json FROM parsed_recordings WHERE file_hash = ? AND recording_index = ?`,
		fileHash, index)

	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query cache: %w", err)
	}

	var pr schema.ParsedRecording
	if err := json.Unmarshal(blob, &pr); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached recording: %w", err)
	}
	return &pr, true, nil
}

// Put stores pr under (fileHash, index), overwriting any existing entry.
func (c *Cache) Put(ctx context.Context, fileHash string, index int, pr *schema.ParsedRecording) error {
	blob, err := json.Marshal(pr)
	if err != nil {
		return fmt.Errorf("marshal recording for cache: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO parsed_recordings (file_hash, recording_index, parsed_json) VALUES (?, ?, ?)
		 ON CONFLICT (file_hash, recording_index) DO UPDATE SET parsed_json = excluded.parsed_json`,
		fileHash, index, blob)
	if err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}
	return nil
}
