package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/lepinkainen/link-preview/internal/config"
	"github.com/lepinkainen/link-preview/pkg/content"
	"github.com/lepinkainen/link-preview/pkg/dbinterfaces"
	"github.com/lepinkainen/link-preview/pkg/opengraph"
	"github.com/lepinkainen/link-preview/pkg/preview"
)

// app wires the configured store and fetcher into a Service
type app struct {
	cfg     *config.Config
	store   opengraph.Store
	service *opengraph.Service
	out     io.Writer
}

// openStore opens the cache backend selected in cfg
func openStore(cfg *config.Config) (opengraph.Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendSQLite:
		store, err := opengraph.NewSQLiteStore(cfg.CachePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite cache: %w", err)
		}
		return store, nil
	default:
		return opengraph.NewJSONStore(cfg.CachePath()), nil
	}
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := opengraph.NewFetcher(&opengraph.FetcherConfig{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
	})

	return &app{
		cfg:   cfg,
		store: store,
		service: opengraph.NewService(opengraph.ServiceConfig{
			Store:       store,
			Fetcher:     fetcher,
			TTL:         cfg.Cache.TTL,
			Concurrency: cfg.Fetch.Concurrency,
		}),
		out: os.Stdout,
	}, nil
}

// Close releases the store if it holds an open handle
func (a *app) Close() {
	if db, ok := a.store.(dbinterfaces.Database); ok {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close cache", "error", err)
		}
	}
}

func (a *app) get(ctx context.Context, urls []string, asJSON bool) {
	results := make([]opengraph.Metadata, 0, len(urls))
	for _, u := range urls {
		results = append(results, a.service.Get(ctx, u))
	}
	a.print(results, asJSON)
}

func (a *app) refresh(ctx context.Context, urls []string, asJSON bool) {
	results := make([]opengraph.Metadata, 0, len(urls))
	for _, u := range urls {
		results = append(results, a.service.Refresh(ctx, u))
	}
	a.print(results, asJSON)
}

func (a *app) clear(ctx context.Context) {
	a.service.Clear(ctx)
	fmt.Fprintf(a.out, "Cleared %s\n", a.cfg.CachePath())
}

func (a *app) stats(ctx context.Context) error {
	stats := a.service.Stats(ctx)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s\n", a.cfg.Cache.Backend)
	fmt.Fprintf(w, "Path:\t%s\n", a.cfg.CachePath())
	fmt.Fprintf(w, "TTL:\t%s\n", a.service.TTL())
	fmt.Fprintf(w, "Entries:\t%d\n", stats.Total)
	fmt.Fprintf(w, "Fresh:\t%d\n", stats.Fresh)
	fmt.Fprintf(w, "Stale:\t%d\n", stats.Stale)

	if provider, ok := a.store.(dbinterfaces.StatsProvider); ok {
		backendStats, err := provider.GetStats()
		if err != nil {
			return fmt.Errorf("failed to read backend statistics: %w", err)
		}
		keys := make([]string, 0, len(backendStats))
		for k := range backendStats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "path" || k == "total_entries" {
				continue
			}
			fmt.Fprintf(w, "%s:\t%v\n", k, backendStats[k])
		}
	}

	return w.Flush()
}

func (a *app) prune(ctx context.Context) error {
	removed := a.service.Prune(ctx)
	fmt.Fprintf(a.out, "Removed %d stale entries\n", removed)

	if compactor, ok := a.store.(dbinterfaces.Compactor); ok && removed > 0 {
		if err := compactor.Compact(); err != nil {
			return fmt.Errorf("failed to compact cache: %w", err)
		}
	}
	return nil
}

func (a *app) warm(ctx context.Context) error {
	links, err := content.NewScanner(a.cfg.Content.Dir, a.cfg.Fetch.Concurrency).Scan(ctx)
	if err != nil {
		return err
	}

	before := a.service.Stats(ctx)
	results := a.service.GetMany(ctx, content.URLs(links))
	after := a.service.Stats(ctx)

	fmt.Fprintf(a.out, "Scanned %d links, %d cached (%d new)\n", len(links), len(results), after.Total-before.Total)
	return ctx.Err()
}

func (a *app) browse(ctx context.Context) error {
	return preview.Run(a.service.Entries(ctx), a.cfg.CachePath(), a.service.TTL(), a.service)
}

// print writes records as indented JSON or a short text block per record
func (a *app) print(results []opengraph.Metadata, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			slog.Error("Failed to encode results", "error", err)
		}
		return
	}

	for i, data := range results {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintln(a.out, preview.FormatDetailedItem(data, a.service.TTL(), time.Now()))
	}
}

// listLinks prints the links warm would fetch
func listLinks(ctx context.Context, cfg *config.Config) error {
	links, err := content.NewScanner(cfg.Content.Dir, cfg.Fetch.Concurrency).Scan(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, l := range links {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.URL, l.Source, l.File)
	}
	return w.Flush()
}
