package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("storage: unknown backend")

// Storage is the capability set every backend implements.
type Storage interface {
	// List returns the full collection, freshly read from the backing medium.
	List(ctx context.Context) (domain.Collection, error)

	// Add inserts or overwrites the record for movie.Title. Last write wins.
	Add(ctx context.Context, movie domain.Movie) error

	// Delete removes the record for title. Absent titles are a no-op.
	Delete(ctx context.Context, title string) error

	// Update replaces the rating of title, keeping year and poster. Absent
	// titles are a no-op.
	Update(ctx context.Context, title string, rating float64) error
}

// snapshotter is the whole-collection read/write pair a backend provides.
type snapshotter interface {
	load(ctx context.Context) (domain.Collection, error)
	save(ctx context.Context, movies domain.Collection) error
}

func list(ctx context.Context, s snapshotter) (domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	movies, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load movies: %w", err)
	}
	return movies, nil
}

// rewrite loads the collection, applies mutate and writes everything back.
// mutate reports whether it changed anything; nothing is written otherwise.
func rewrite(ctx context.Context, s snapshotter, mutate func(domain.Collection) bool) error {
	movies, err := list(ctx, s)
	if err != nil {
		return err
	}
	if !mutate(movies) {
		return nil
	}
	if err := s.save(ctx, movies); err != nil {
		return fmt.Errorf("save movies: %w", err)
	}
	return nil
}

func putMovie(movie domain.Movie) func(domain.Collection) bool {
	return func(movies domain.Collection) bool {
		movies[movie.Title] = movie
		return true
	}
}

func removeMovie(title string) func(domain.Collection) bool {
	return func(movies domain.Collection) bool {
		if _, ok := movies[title]; !ok {
			return false
		}
		delete(movies, title)
		return true
	}
}

func setRating(title string, rating float64) func(domain.Collection) bool {
	return func(movies domain.Collection) bool {
		movie, ok := movies[title]
		if !ok {
			return false
		}
		movie.Rating = rating
		movies[title] = movie
		return true
	}
}

// ensureFile creates path and its parent directories with initial content
// when the file does not exist yet. It reports whether the file was created.
func ensureFile(path string, initial []byte) (bool, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create data dir: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, initial, 0o644); err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	return true, nil
}
