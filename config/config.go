// Package config loads catalog-cli settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Feeds     []string    `env:"FEEDS" envSeparator:","`
	FeedsOPML string      `env:"FEEDS_OPML"`
	PageSize  int         `env:"PAGE_SIZE" envDefault:"40"`
	Fetch     FetchConfig `envPrefix:"FETCH_"`
	Cache     CacheConfig `envPrefix:"CACHE_"`
	Log       LogConfig   `envPrefix:"LOG_"`
}

type FetchConfig struct {
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
	Concurrency int           `env:"CONCURRENCY" envDefault:"8"`
}

type CacheConfig struct {
	DB  string `env:"DB"`
	TTL string `env:"TTL" envDefault:"1d"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"warn"`
	Format string `env:"FORMAT" envDefault:"console"`
}

// Load reads a .env file from the working directory if there is one and
// parses CATALOG_* variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return Parse()
}

// Parse reads CATALOG_* variables from the process environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "CATALOG_"}); err != nil {
		return nil, err
	}
	return cfg, nil
}
