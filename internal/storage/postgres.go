package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// PostgresOptions controls connection-pool behaviour.
type PostgresOptions struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
}

// PostgresStore keeps the catalog in a PostgreSQL table. Mutations rewrite
// the whole table inside one transaction.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
	opts   PostgresOptions
}

// NewPostgresStore initializes a connection pool, validates connectivity with
// Ping and ensures the movies table exists.
func NewPostgresStore(ctx context.Context, dbURL string, opts PostgresOptions, logger *log.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("storage: initializing postgres pool (max=%d, min=%d, idle=%s, life=%s, stmt_cache=%d)",
		opts.MaxConns, opts.MinConns, opts.MaxConnIdleTime, opts.MaxConnLifetime, opts.StatementCacheCapacity)

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.StatementCacheCapacity >= 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	}

	connCtx := ctx
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(connCtx, createMoviesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create movies table: %w", err)
	}

	logger.Println("storage: postgres connection established")
	return &PostgresStore{pool: pool, logger: logger, opts: opts}, nil
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.logger.Println("storage: closing postgres pool")
	s.pool.Close()
	return nil
}

// HealthCheck verifies the database is reachable.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage not initialized")
	}
	checkCtx := ctx
	if s.opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.opts.ConnTimeout)
		defer cancel()
	}
	return s.pool.Ping(checkCtx)
}

func (s *PostgresStore) List(ctx context.Context) (domain.Collection, error) {
	return list(ctx, s)
}

func (s *PostgresStore) Add(ctx context.Context, movie domain.Movie) error {
	return rewrite(ctx, s, putMovie(movie))
}

func (s *PostgresStore) Delete(ctx context.Context, title string) error {
	return rewrite(ctx, s, removeMovie(title))
}

func (s *PostgresStore) Update(ctx context.Context, title string, rating float64) error {
	return rewrite(ctx, s, setRating(title, rating))
}

func (s *PostgresStore) load(ctx context.Context) (domain.Collection, error) {
	rows, err := s.pool.Query(ctx, `SELECT title, year, rating, COALESCE(poster, '') FROM movies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make(domain.Collection)
	for rows.Next() {
		var movie domain.Movie
		if err := rows.Scan(&movie.Title, &movie.Year, &movie.Rating, &movie.Poster); err != nil {
			return nil, err
		}
		movies[movie.Title] = movie
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

func (s *PostgresStore) save(ctx context.Context, movies domain.Collection) error {
	rows := make([][]any, 0, len(movies))
	for _, movie := range movies.Sorted() {
		var poster *string
		if movie.Poster != "" {
			p := movie.Poster
			poster = &p
		}
		rows = append(rows, []any{movie.Title, int32(movie.Year), movie.Rating, poster})
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM movies`); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"movies"}, []string{"title", "year", "rating", "poster"}, pgx.CopyFromRows(rows))
		return err
	})
}
