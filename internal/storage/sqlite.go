package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"

	_ "modernc.org/sqlite"
)

const createMoviesTable = `
    CREATE TABLE IF NOT EXISTS movies (
        title  TEXT PRIMARY KEY,
        year   INTEGER NOT NULL,
        rating DOUBLE PRECISION NOT NULL,
        poster TEXT
    )
`

// SQLiteStore keeps the catalog in a single SQLite table. It still rewrites
// the whole table on every mutation, inside one transaction.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// movies table exists.
func NewSQLiteStore(ctx context.Context, path string, logger *log.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage: sqlite path is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", cleanPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, createMoviesTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create movies table: %w", err)
	}
	logger.Printf("storage: sqlite catalog ready at %s", cleanPath)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) (domain.Collection, error) {
	return list(ctx, s)
}

func (s *SQLiteStore) Add(ctx context.Context, movie domain.Movie) error {
	return rewrite(ctx, s, putMovie(movie))
}

func (s *SQLiteStore) Delete(ctx context.Context, title string) error {
	return rewrite(ctx, s, removeMovie(title))
}

func (s *SQLiteStore) Update(ctx context.Context, title string, rating float64) error {
	return rewrite(ctx, s, setRating(title, rating))
}

func (s *SQLiteStore) load(ctx context.Context) (domain.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, year, rating, COALESCE(poster, '') FROM movies`)
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

func (s *SQLiteStore) save(ctx context.Context, movies domain.Collection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO movies (title, year, rating, poster) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, movie := range movies.Sorted() {
		poster := sql.NullString{String: movie.Poster, Valid: movie.Poster != ""}
		if _, err := stmt.ExecContext(ctx, movie.Title, movie.Year, movie.Rating, poster); err != nil {
			return fmt.Errorf("insert %q: %w", movie.Title, err)
		}
	}
	return tx.Commit()
}
