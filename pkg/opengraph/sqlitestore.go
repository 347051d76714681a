package opengraph

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lepinkainen/link-preview/pkg/dbinterfaces"
	"github.com/lepinkainen/link-preview/pkg/filesystem"
	_ "modernc.org/sqlite"
)

// DefaultDBFile is the default SQLite cache location
const DefaultDBFile = ".cache/og-metadata.db"

// SQLiteStore keeps the cache in an SQLite database, one row per URL.
// Save replaces the whole table in one transaction so it has the same
// whole-mapping semantics as JSONStore.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Ensure SQLiteStore implements interfaces
var _ Store = (*SQLiteStore)(nil)
var _ dbinterfaces.Database = (*SQLiteStore)(nil)
var _ dbinterfaces.StatsProvider = (*SQLiteStore)(nil)
var _ dbinterfaces.Compactor = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates if needed) an SQLite cache database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}

	if err := filesystem.EnsureDirectoryExists(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // concurrent readers while a build writes
		"PRAGMA busy_timeout=5000",  // 5 second timeout for lock contention
		"PRAGMA synchronous=NORMAL", // balance between performance and safety
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Debug("OpenGraph database initialized", "path", dbPath)
	return store, nil
}

// createSchema creates the necessary tables
func (s *SQLiteStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS og_metadata (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		image TEXT DEFAULT '',
		site_name TEXT DEFAULT '',
		favicon TEXT DEFAULT '',
		fetched_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load implements Store
func (s *SQLiteStore) Load(ctx context.Context) Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cache := Cache{}

	rows, err := s.db.QueryContext(ctx, `
	SELECT url, title, description, image, site_name, favicon, fetched_at
	FROM og_metadata
	`)
	if err != nil {
		slog.Warn("Failed to load OpenGraph cache", "path", s.dbPath, "error", err)
		return cache
	}
	defer rows.Close()

	for rows.Next() {
		var data Metadata
		var fetchedAt string
		if err := rows.Scan(&data.URL, &data.Title, &data.Description, &data.Image, &data.SiteName, &data.Favicon, &fetchedAt); err != nil {
			slog.Warn("Failed to scan OpenGraph cache row", "error", err)
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			slog.Warn("Skipping cache row with invalid timestamp", "url", data.URL, "fetched_at", fetchedAt)
			continue
		}
		data.FetchedAt = ts
		cache[data.URL] = data
	}

	if err := rows.Err(); err != nil {
		slog.Warn("Failed to read OpenGraph cache", "path", s.dbPath, "error", err)
		return Cache{}
	}

	return cache
}

// Save implements Store
func (s *SQLiteStore) Save(ctx context.Context, cache Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.replaceAll(ctx, cache); err != nil {
		slog.Warn("Failed to save OpenGraph cache", "path", s.dbPath, "error", err)
	}
}

// replaceAll swaps the table contents for cache in a single transaction
func (s *SQLiteStore) replaceAll(ctx context.Context, cache Cache) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM og_metadata`); err != nil {
		return fmt.Errorf("failed to clear cache table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO og_metadata (url, title, description, image, site_name, favicon, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	// Rows are keyed by the cache key, which Load restores as the record URL.
	for key, data := range cache {
		_, err := stmt.ExecContext(ctx,
			key,
			data.Title,
			data.Description,
			data.Image,
			data.SiteName,
			data.Favicon,
			data.FetchedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to save cached data for %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// GetStats returns statistics about the cache
func (s *SQLiteStore) GetStats() (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]any)

	var totalEntries int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM og_metadata").Scan(&totalEntries); err != nil {
		return nil, fmt.Errorf("failed to get total entries: %w", err)
	}
	stats["total_entries"] = totalEntries

	var withImage int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM og_metadata WHERE image != ''").Scan(&withImage); err != nil {
		return nil, fmt.Errorf("failed to get image entries: %w", err)
	}
	stats["entries_with_image"] = withImage
	stats["path"] = s.dbPath

	return stats, nil
}

// Compact rebuilds the database file, returning pages freed by deletes to the OS
func (s *SQLiteStore) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
