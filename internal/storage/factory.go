package storage

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendJSON     = "json"
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Path     string
	DBURL    string
	Postgres PostgresOptions
	Logger   *log.Logger
}

// DefaultPath returns the data file used when no path is configured.
func DefaultPath(backend string) string {
	switch strings.ToLower(backend) {
	case BackendCSV:
		return "data/data.csv"
	case BackendSQLite:
		return "data/data.db"
	default:
		return "data/data.json"
	}
}

// Open creates a Storage based on the backend name.
//
// Supported backends:
//
//	"json"     - single JSON object file (default)
//	"csv"      - title,year,rating lines
//	"sqlite"   - SQLite database file
//	"postgres" - PostgreSQL database at DBURL
//
// Callers should close the result when it implements io.Closer.
func Open(ctx context.Context, opts Options) (Storage, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	path := opts.Path
	if path == "" {
		path = DefaultPath(backend)
	}
	switch backend {
	case BackendJSON, "":
		st, err := NewJSONStore(path, opts.Logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendCSV:
		st, err := NewCSVStore(path, opts.Logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendSQLite:
		st, err := NewSQLiteStore(ctx, path, opts.Logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendPostgres:
		if opts.DBURL == "" {
			return nil, fmt.Errorf("storage: postgres backend requires a database url")
		}
		st, err := NewPostgresStore(ctx, opts.DBURL, opts.Postgres, opts.Logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: json, csv, sqlite, postgres)", ErrUnknownBackend, opts.Backend)
	}
}
