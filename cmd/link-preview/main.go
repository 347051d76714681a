// Package main provides the CLI entry point for link-preview.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/lepinkainen/link-preview/internal/config"
)

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:"config.yaml"`
	Debug  bool   `help:"Enable debug logging" default:"false"`

	// Overrides for config.yaml; zero values keep the configured setting
	CacheBackend     string        `help:"Cache backend (json or sqlite)"`
	CachePath        string        `help:"Cache file path" short:"c"`
	CacheTTL         time.Duration `help:"Freshness window for cached previews"`
	FetchTimeout     time.Duration `help:"Per-page fetch timeout"`
	FetchUserAgent   string        `help:"User-Agent sent with page fetches"`
	FetchConcurrency int           `help:"Parallel fetches when warming"`

	Get struct {
		URLs []string `arg:"" name:"url" help:"URLs to look up"`
		JSON bool     `help:"Print records as JSON" short:"j"`
	} `cmd:"" help:"Print link previews, fetching any that are missing or stale."`

	Refresh struct {
		URLs []string `arg:"" name:"url" help:"URLs to re-fetch"`
		JSON bool     `help:"Print records as JSON" short:"j"`
	} `cmd:"" help:"Re-fetch link previews regardless of cache state."`

	Clear struct{} `cmd:"" help:"Remove every cached preview."`

	Stats struct{} `cmd:"" help:"Show cache statistics."`

	Prune struct{} `cmd:"" help:"Remove stale previews from the cache."`

	Warm struct {
		Dir    string `help:"Content directory to scan" type:"path"`
		DryRun bool   `help:"List the links without fetching" name:"dry-run"`
	} `cmd:"" help:"Fetch previews for every link found in the blog content."`

	Posts struct {
		Host   string `help:"Hashnode publication host"`
		Slug   string `help:"Fetch a single post by slug"`
		OutDir string `help:"Write each post as an .mdx file into this directory" type:"path" name:"out-dir"`
	} `cmd:"" help:"List posts from a Hashnode publication as front matter."`

	Browse struct{} `cmd:"" help:"Browse cached previews interactively."`

	Validate struct {
		Files []string `arg:"" name:"file" help:"Markdown files to validate" type:"existingfile"`
	} `cmd:"" help:"Validate blog post front matter."`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a default configuration file."`
}

func main() {
	// Parse CLI with Kong YAML configuration file loading
	kctx := kong.Parse(&CLI,
		kong.Name("link-preview"),
		kong.Description("Fetch and cache Open Graph link previews."),
		kong.Configuration(kongyaml.Loader, "~/.link-preview/config.yaml"),
	)

	// Configure logging level based on debug flag
	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	if kctx.Command() == "init" {
		if err := writeDefaultConfig(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Failed to write configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "path", CLI.Config, "error", err)
		os.Exit(1)
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, kctx.Command(), cfg); err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		stop()
		os.Exit(1)
	}
}

// applyOverrides copies explicitly set global flags over the loaded configuration
func applyOverrides(cfg *config.Config) {
	if CLI.CacheBackend != "" {
		cfg.Cache.Backend = CLI.CacheBackend
	}
	if CLI.CachePath != "" {
		cfg.Cache.Path = CLI.CachePath
	}
	if CLI.CacheTTL > 0 {
		cfg.Cache.TTL = CLI.CacheTTL
	}
	if CLI.FetchTimeout > 0 {
		cfg.Fetch.Timeout = CLI.FetchTimeout
	}
	if CLI.FetchUserAgent != "" {
		cfg.Fetch.UserAgent = CLI.FetchUserAgent
	}
	if CLI.FetchConcurrency > 0 {
		cfg.Fetch.Concurrency = CLI.FetchConcurrency
	}
	if CLI.Warm.Dir != "" {
		cfg.Content.Dir = CLI.Warm.Dir
	}
	if CLI.Posts.Host != "" {
		cfg.Hashnode.Host = CLI.Posts.Host
	}
}

func run(ctx context.Context, command string, cfg *config.Config) error {
	switch command {
	case "validate <file>":
		return validateFiles(CLI.Validate.Files)

	case "posts":
		return listPosts(ctx, cfg, CLI.Posts.Slug, CLI.Posts.OutDir)

	case "warm":
		if CLI.Warm.DryRun {
			return listLinks(ctx, cfg)
		}
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	switch command {
	case "get <url>":
		app.get(ctx, CLI.Get.URLs, CLI.Get.JSON)
	case "refresh <url>":
		app.refresh(ctx, CLI.Refresh.URLs, CLI.Refresh.JSON)
	case "clear":
		app.clear(ctx)
	case "stats":
		return app.stats(ctx)
	case "prune":
		return app.prune(ctx)
	case "warm":
		return app.warm(ctx)
	case "browse":
		return app.browse(ctx)
	default:
		panic(command)
	}
	return nil
}
