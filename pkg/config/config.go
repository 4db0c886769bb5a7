// Package config loads the flowboard server configuration from a TOML file.
//
// Every field has a sensible default, so an empty (or absent) file yields a
// runnable development configuration: in-memory store, no redis, local
// listen address.
//
// # Example
//
//	listen = ":8080"
//
//	[store]
//	backend  = "mongo"
//	uri      = "mongodb://localhost:27017"
//	database = "flowboard"
//
//	[cache]
//	redis_addr = "localhost:6379"
//	query_ttl  = "15m"
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowboard/pkg/cache"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// defaultRequestTimeout bounds a single HTTP request end to end.
const defaultRequestTimeout = 30 * time.Second

// Config is the top-level server configuration.
type Config struct {
	// Listen is the HTTP listen address (host:port).
	Listen string `toml:"listen"`

	// RequestTimeout bounds each HTTP request (e.g. "30s").
	RequestTimeout duration `toml:"request_timeout"`

	Store StoreConfig `toml:"store"`
	Cache CacheConfig `toml:"cache"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "mongo".
	Backend string `toml:"backend"`

	// URI is the MongoDB connection string (mongo backend only).
	URI string `toml:"uri"`

	// Database is the MongoDB database name (mongo backend only).
	Database string `toml:"database"`
}

// CacheConfig configures the connected-nodes query cache.
type CacheConfig struct {
	// RedisAddr enables the redis cache when non-empty.
	RedisAddr string `toml:"redis_addr"`

	// QueryTTL is how long query results are cached (e.g. "15m").
	QueryTTL duration `toml:"query_ttl"`
}

// duration wraps time.Duration so TOML values like "15m" decode directly.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Listen:         ":8080",
		RequestTimeout: duration{defaultRequestTimeout},
		Store: StoreConfig{
			Backend:  BackendMemory,
			URI:      "mongodb://localhost:27017",
			Database: "flowboard",
		},
		Cache: CacheConfig{
			QueryTTL: duration{cache.DefaultQueryTTL},
		},
	}
}

// Load reads the configuration from path, applying defaults for anything
// the file does not set. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Store.URI == "" {
			return fmt.Errorf("store.uri is required for the mongo backend")
		}
		if c.Store.Database == "" {
			return fmt.Errorf("store.database is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want %q or %q)", c.Store.Backend, BackendMemory, BackendMongo)
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}
	if c.Cache.QueryTTL.Duration < 0 {
		return fmt.Errorf("cache.query_ttl cannot be negative")
	}
	return nil
}

// QueryTTL returns the configured cache TTL, falling back to the default
// when unset.
func (c *Config) QueryTTL() time.Duration {
	if c.Cache.QueryTTL.Duration == 0 {
		return cache.DefaultQueryTTL
	}
	return c.Cache.QueryTTL.Duration
}
