package opengraph

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// MetadataFetcher fetches metadata for one URL and never fails
type MetadataFetcher interface {
	Fetch(ctx context.Context, targetURL string) Metadata
}

// ServiceConfig configures a Service
type ServiceConfig struct {
	Store       Store
	Fetcher     MetadataFetcher
	TTL         time.Duration
	Concurrency int
	Now         func() time.Time
}

// Service answers metadata lookups from the cache, fetching on a miss or when
// the cached entry is stale. Every call reloads the cache from its Store.
type Service struct {
	store       Store
	fetcher     MetadataFetcher
	ttl         time.Duration
	concurrency int
	now         func() time.Time

	// writeMu serializes load-modify-save so concurrent lookups in one
	// process don't drop each other's entries. Fetches run outside it.
	writeMu sync.Mutex
}

// NewService creates a Service. Missing fields get JSONStore, the default
// Fetcher and DefaultTTL.
func NewService(config ServiceConfig) *Service {
	s := &Service{
		store:       config.Store,
		fetcher:     config.Fetcher,
		ttl:         config.TTL,
		concurrency: config.Concurrency,
		now:         config.Now,
	}

	if s.store == nil {
		s.store = NewJSONStore(DefaultCacheFile)
	}
	if s.fetcher == nil {
		s.fetcher = NewFetcher(nil)
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.concurrency <= 0 {
		s.concurrency = 5
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Get returns fresh cached metadata for targetURL, fetching and caching it
// when the entry is missing or stale.
func (s *Service) Get(ctx context.Context, targetURL string) Metadata {
	key := NormalizeURL(targetURL)

	cache := s.store.Load(ctx)
	if cached, ok := cache[key]; ok && IsFresh(cached, s.ttl, s.now()) {
		slog.Debug("Found cached OpenGraph data", "url", key)
		return cached
	}

	return s.fetchAndStore(ctx, key)
}

// Refresh fetches targetURL regardless of what is cached and stores the result
func (s *Service) Refresh(ctx context.Context, targetURL string) Metadata {
	return s.fetchAndStore(ctx, NormalizeURL(targetURL))
}

// Clear discards every cached entry
func (s *Service) Clear(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.store.Save(ctx, Cache{})
	slog.Info("Cleared OpenGraph cache")
}

// GetMany looks up several URLs with bounded concurrency. The result is keyed
// by normalized URL.
func (s *Service) GetMany(ctx context.Context, urls []string) map[string]Metadata {
	results := make(map[string]Metadata, len(urls))
	var mu sync.Mutex

	slog.Info("Starting concurrent OpenGraph fetch", "total_urls", len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	seen := make(map[string]struct{}, len(urls))
	for _, targetURL := range urls {
		if targetURL == "" {
			continue
		}
		key := NormalizeURL(targetURL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		g.Go(func() error {
			data := s.Get(gctx, key)
			mu.Lock()
			results[key] = data
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	slog.Info("Completed concurrent OpenGraph fetch", "urls", len(results))
	return results
}

// Stats summarizes the cache contents
type Stats struct {
	Total int
	Fresh int
	Stale int
}

// Stats counts fresh and stale entries in the cache
func (s *Service) Stats(ctx context.Context) Stats {
	now := s.now()
	var stats Stats
	for _, data := range s.store.Load(ctx) {
		stats.Total++
		if IsFresh(data, s.ttl, now) {
			stats.Fresh++
		} else {
			stats.Stale++
		}
	}
	return stats
}

// Prune removes stale entries and returns how many were dropped
func (s *Service) Prune(ctx context.Context) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	cache := s.store.Load(ctx)
	removed := 0
	for key, data := range cache {
		if !IsFresh(data, s.ttl, now) {
			delete(cache, key)
			removed++
		}
	}

	if removed > 0 {
		s.store.Save(ctx, cache)
		slog.Debug("Cleaned up expired OpenGraph cache entries", "count", removed)
	}
	return removed
}

// Entries returns a copy of every cached record
func (s *Service) Entries(ctx context.Context) Cache {
	return s.store.Load(ctx)
}

// TTL returns the freshness window
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// fetchAndStore fetches key, then inserts the result into a freshly loaded
// cache and saves it. A fetch cut short by the caller cancelling ctx is
// returned but not stored, so it cannot replace a good entry.
func (s *Service) fetchAndStore(ctx context.Context, key string) Metadata {
	data := s.fetcher.Fetch(ctx, key)
	data.URL = key

	if errors.Is(ctx.Err(), context.Canceled) {
		slog.Debug("Skipping cache update for cancelled fetch", "url", key)
		return data
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cache := s.store.Load(ctx)
	if cache == nil {
		cache = Cache{}
	}
	cache[key] = data
	s.store.Save(ctx, cache)

	return data
}
