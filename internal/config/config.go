package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/link-preview/pkg/filesystem"
	"github.com/lepinkainen/link-preview/pkg/hashnode"
	"github.com/lepinkainen/link-preview/pkg/opengraph"
)

// Cache backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultHashnodeHost is the publication posts are imported from
const DefaultHashnodeHost = "gelinjo.hashnode.dev"

// Config holds the central application configuration
type Config struct {
	// Cache storage configuration
	Cache struct {
		Backend string        `mapstructure:"backend"` // "json" or "sqlite"
		Path    string        `mapstructure:"path"`    // Cache file path; empty picks the backend default
		TTL     time.Duration `mapstructure:"ttl"`     // Freshness window
	} `mapstructure:"cache"`

	// Page fetch configuration
	Fetch struct {
		Timeout     time.Duration `mapstructure:"timeout"`
		UserAgent   string        `mapstructure:"user_agent"`
		Concurrency int           `mapstructure:"concurrency"` // Parallel fetches for warm
	} `mapstructure:"fetch"`

	// Hashnode publication configuration
	Hashnode struct {
		Host     string `mapstructure:"host"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"hashnode"`

	// Blog content configuration
	Content struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"content"`
}

// CachePath returns the configured cache path, or the default for the backend
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	if c.Cache.Backend == BackendSQLite {
		return opengraph.DefaultDBFile
	}
	return opengraph.DefaultCacheFile
}

// Validate checks values viper cannot check on its own
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q (want %q or %q)", c.Cache.Backend, BackendJSON, BackendSQLite)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.backend", BackendJSON)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", opengraph.DefaultTTL)

	v.SetDefault("fetch.timeout", opengraph.DefaultTimeout)
	v.SetDefault("fetch.user_agent", opengraph.DefaultUserAgent)
	v.SetDefault("fetch.concurrency", 5)

	v.SetDefault("hashnode.host", DefaultHashnodeHost)
	v.SetDefault("hashnode.endpoint", hashnode.DefaultEndpoint)

	v.SetDefault("content.dir", "src/content/blog")
}

// resolvePath looks for a relative path in the working directory first, then
// next to the executable
func resolvePath(path string) string {
	if path == "" {
		path = "config.yaml"
	}

	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			if execPath, err := filesystem.GetDefaultPath(path); err == nil {
				if _, err := os.Stat(execPath); err == nil {
					return execPath
				}
			}
		}
	}

	return path
}

// LoadConfig loads the configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	path = resolvePath(path)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LINK_PREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// If config file doesn't exist, that's okay - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, path string) error {
	path = resolvePath(path)

	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("cache.backend", config.Cache.Backend)
	v.Set("cache.path", config.Cache.Path)
	v.Set("cache.ttl", config.Cache.TTL.String())

	v.Set("fetch.timeout", config.Fetch.Timeout.String())
	v.Set("fetch.user_agent", config.Fetch.UserAgent)
	v.Set("fetch.concurrency", config.Fetch.Concurrency)

	v.Set("hashnode.host", config.Hashnode.Host)
	v.Set("hashnode.endpoint", config.Hashnode.Endpoint)

	v.Set("content.dir", config.Content.Dir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
