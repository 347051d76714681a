// Package opengraph fetches link-preview metadata (Open Graph, Twitter card and
// plain HTML fallbacks) and keeps it in a persisted cache keyed by normalized URL.
package opengraph

import (
	"maps"
	"time"
)

// Metadata represents link-preview metadata extracted from a webpage
type Metadata struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	SiteName    string    `json:"siteName,omitempty"`
	Favicon     string    `json:"favicon,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Cache maps a normalized URL to the last known metadata for it
type Cache map[string]Metadata

// Clone returns a shallow copy of the cache. Metadata is a value type, so the
// copy shares nothing mutable with the original.
func (c Cache) Clone() Cache {
	if c == nil {
		return Cache{}
	}
	return maps.Clone(c)
}

// Constants for OpenGraph caching
const (
	DefaultTTL       = 7 * 24 * time.Hour
	DefaultCacheFile = ".cache/og-metadata.json"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; OGFetcher/1.0)"
	AcceptHeader     = "text/html,application/xhtml+xml"

	// maxBodySize caps how much of a page is read before extraction
	maxBodySize = 1024 * 1024
)
