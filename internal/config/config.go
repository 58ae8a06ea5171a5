package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Clark-Hu/movie-catalog/internal/storage"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Backend  string `env:"MOVIES_BACKEND" envDefault:"json"`
	DataPath string `env:"MOVIES_DATA_PATH"`
	Seed     int64  `env:"MOVIES_SEED"`

	DBURL             string `env:"DB_URL"`
	DBMaxConns        int    `env:"DB_MAX_CONNS" envDefault:"4"`
	DBMinConns        int    `env:"DB_MIN_CONNS" envDefault:"0"`
	DBMaxIdleSecs     int    `env:"DB_MAX_CONN_IDLE_SECS" envDefault:"300"`
	DBMaxLifeSecs     int    `env:"DB_MAX_CONN_LIFETIME_SECS" envDefault:"3600"`
	DBConnTimeoutSecs int    `env:"DB_CONN_TIMEOUT_SECS" envDefault:"10"`
	DBStatementCache  int    `env:"DB_STATEMENT_CACHE_CAPACITY" envDefault:"64"`

	OMDbURL         string `env:"OMDB_URL" envDefault:"https://www.omdbapi.com/"`
	OMDbAPIKey      string `env:"OMDB_API_KEY"`
	OMDbTimeoutSecs int    `env:"OMDB_TIMEOUT_SECS" envDefault:"5"`

	WebsiteTemplate string `env:"WEBSITE_TEMPLATE" envDefault:"static/index_template.html"`
	WebsiteOutput   string `env:"WEBSITE_OUTPUT" envDefault:"static/index.html"`
	WebsiteTitle    string `env:"WEBSITE_TITLE" envDefault:"My Movie App"`

	Port             string `env:"PORT" envDefault:"8080"`
	AuthToken        string `env:"AUTH_TOKEN"`
	ReadTimeoutSecs  int    `env:"SERVER_READ_TIMEOUT" envDefault:"15"`
	WriteTimeoutSecs int    `env:"SERVER_WRITE_TIMEOUT" envDefault:"15"`
	IdleTimeoutSecs  int    `env:"SERVER_IDLE_TIMEOUT" envDefault:"60"`
}

// LoadDotEnv merges variables from the given .env files into the process
// environment without overriding values that are already set. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.DataPath == "" {
		cfg.DataPath = storage.DefaultPath(cfg.Backend)
	}

	switch cfg.Backend {
	case storage.BackendJSON, storage.BackendCSV, storage.BackendSQLite:
	case storage.BackendPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required for the postgres backend")
		}
	default:
		return Config{}, fmt.Errorf("MOVIES_BACKEND %q is not one of json, csv, sqlite, postgres", cfg.Backend)
	}
	if cfg.OMDbTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("OMDB_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}

	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.ReadTimeoutSecs <= 0 || c.WriteTimeoutSecs <= 0 || c.IdleTimeoutSecs <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be positive")
	}
	return nil
}

// EnrichmentEnabled reports whether OMDb lookups are configured.
func (c Config) EnrichmentEnabled() bool {
	return c.OMDbAPIKey != ""
}

// StorageOptions maps the configuration onto storage.Options.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Backend,
		Path:    c.DataPath,
		DBURL:   c.DBURL,
		Postgres: storage.PostgresOptions{
			MaxConns:               int32(c.DBMaxConns),
			MinConns:               int32(c.DBMinConns),
			MaxConnIdleTime:        time.Duration(c.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(c.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(c.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: c.DBStatementCache,
		},
	}
}
