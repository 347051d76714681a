package opengraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/lepinkainen/link-preview/pkg/dbinterfaces"
	"github.com/lepinkainen/link-preview/pkg/filesystem"
)

// JSONStore keeps the cache as one pretty-printed JSON document on disk.
// Writes go through a temp file and rename so a reader never sees a partial file.
type JSONStore struct {
	path string
}

var _ Store = (*JSONStore)(nil)
var _ dbinterfaces.StatsProvider = (*JSONStore)(nil)

// NewJSONStore creates a store backed by the file at path
func NewJSONStore(path string) *JSONStore {
	if path == "" {
		path = DefaultCacheFile
	}
	return &JSONStore{path: path}
}

// Path returns the backing file path
func (s *JSONStore) Path() string {
	return s.path
}

// Load implements Store
func (s *JSONStore) Load(_ context.Context) Cache {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to load OpenGraph cache", "path", s.path, "error", err)
		}
		return Cache{}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("Failed to parse OpenGraph cache", "path", s.path, "error", err)
		return Cache{}
	}

	cache := make(Cache, len(raw))
	for key, entry := range raw {
		metadata, err := decodeEntry(entry)
		if err != nil {
			slog.Warn("Dropping unreadable OpenGraph cache entry", "url", key, "error", err)
			continue
		}
		cache[key] = metadata
	}
	return cache
}

// decodeEntry decodes one cached record. An unparseable fetchedAt leaves the
// timestamp zero, which makes the entry stale instead of failing the whole file.
func decodeEntry(entry json.RawMessage) (Metadata, error) {
	var metadata Metadata
	if err := json.Unmarshal(entry, &metadata); err == nil {
		return metadata, nil
	}

	var lenient struct {
		Metadata
		FetchedAt json.RawMessage `json:"fetchedAt"`
	}
	if err := json.Unmarshal(entry, &lenient); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return lenient.Metadata, nil
}

// Save implements Store
func (s *JSONStore) Save(_ context.Context, cache Cache) {
	if cache == nil {
		cache = Cache{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // keep & in query strings readable
	enc.SetIndent("", "  ")
	if err := enc.Encode(cache); err != nil {
		slog.Warn("Failed to encode OpenGraph cache", "error", err)
		return
	}

	if err := filesystem.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		slog.Warn("Failed to save OpenGraph cache", "path", s.path, "error", err)
	}
}

// GetStats returns the entry count and size of the cache file
func (s *JSONStore) GetStats() (map[string]any, error) {
	stats := map[string]any{"path": s.path}

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		stats["total_entries"] = 0
		stats["size_bytes"] = int64(0)
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat cache file: %w", err)
	}

	stats["total_entries"] = len(s.Load(context.Background()))
	stats["size_bytes"] = info.Size()
	return stats, nil
}
