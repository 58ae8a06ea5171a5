// Package catalog holds the application rules that sit on top of storage:
// input validation, duplicate checks, title resolution and the read-only
// views (stats, search, sorting, random pick).
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/storage"
)

var (
	// ErrNotFound indicates no movie matches the requested title.
	ErrNotFound = errors.New("catalog: movie not found")
	// ErrAlreadyExists is returned when adding a title that is already stored.
	ErrAlreadyExists = errors.New("catalog: movie already exists")
	// ErrEmptyCatalog is returned by views that need at least one movie.
	ErrEmptyCatalog = errors.New("catalog: no movies")
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("catalog: invalid input")
)

const (
	MinRating = 1.0
	MaxRating = 10.0
	// MinYear is the year of the earliest surviving film.
	MinYear = 1888
)

// fold returns the case-folded form of s. A Caser is stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ValidateTitle trims title and rejects empty values.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	return title, nil
}

// ValidateRating enforces the 1-10 rating scale.
func ValidateRating(rating float64) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %g and %g", ErrInvalidInput, MinRating, MaxRating)
	}
	return nil
}

// ValidateYear rejects years before cinema existed or far in the future.
func ValidateYear(year int) error {
	maxYear := time.Now().Year() + 10
	if year < MinYear || year > maxYear {
		return fmt.Errorf("%w: year must be between %d and %d", ErrInvalidInput, MinYear, maxYear)
	}
	return nil
}

// ResolveTitle finds the stored key for query: an exact match wins, otherwise
// the first case-insensitive match in title order.
func ResolveTitle(movies domain.Collection, query string) (string, bool) {
	query = strings.TrimSpace(query)
	if _, ok := movies[query]; ok {
		return query, true
	}
	folded := fold(query)
	for _, title := range movies.Titles() {
		if fold(title) == folded {
			return title, true
		}
	}
	return "", false
}

// Service applies catalog rules before delegating to a storage backend.
type Service struct {
	store  storage.Storage
	logger *log.Logger
}

// NewService wraps store.
func NewService(store storage.Storage, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, logger: logger}
}

// List returns the current collection.
func (s *Service) List(ctx context.Context) (domain.Collection, error) {
	return s.store.List(ctx)
}

// Exists reports whether title (case-insensitively) is already stored.
func (s *Service) Exists(ctx context.Context, title string) (bool, error) {
	movies, err := s.store.List(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ResolveTitle(movies, title)
	return ok, nil
}

// Add validates movie and stores it unless the title already exists.
func (s *Service) Add(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	title, err := ValidateTitle(movie.Title)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.Title = title
	movie.Poster = strings.TrimSpace(movie.Poster)
	if err := ValidateRating(movie.Rating); err != nil {
		return domain.Movie{}, err
	}
	if err := ValidateYear(movie.Year); err != nil {
		return domain.Movie{}, err
	}

	exists, err := s.Exists(ctx, title)
	if err != nil {
		return domain.Movie{}, err
	}
	if exists {
		return domain.Movie{}, fmt.Errorf("%w: %s", ErrAlreadyExists, title)
	}
	if err := s.store.Add(ctx, movie); err != nil {
		return domain.Movie{}, fmt.Errorf("add %q: %w", title, err)
	}
	s.logger.Printf("catalog: added %q (%d)", title, movie.Year)
	return movie, nil
}

// Delete removes the movie matching title and returns the stored title.
func (s *Service) Delete(ctx context.Context, title string) (string, error) {
	stored, err := s.resolve(ctx, title)
	if err != nil {
		return "", err
	}
	if err := s.store.Delete(ctx, stored); err != nil {
		return "", fmt.Errorf("delete %q: %w", stored, err)
	}
	s.logger.Printf("catalog: deleted %q", stored)
	return stored, nil
}

// UpdateRating changes the rating of the movie matching title.
func (s *Service) UpdateRating(ctx context.Context, title string, rating float64) (domain.Movie, error) {
	if err := ValidateRating(rating); err != nil {
		return domain.Movie{}, err
	}
	stored, err := s.resolve(ctx, title)
	if err != nil {
		return domain.Movie{}, err
	}
	if err := s.store.Update(ctx, stored, rating); err != nil {
		return domain.Movie{}, fmt.Errorf("update %q: %w", stored, err)
	}
	movies, err := s.store.List(ctx)
	if err != nil {
		return domain.Movie{}, err
	}
	s.logger.Printf("catalog: updated %q rating to %g", stored, rating)
	return movies[stored], nil
}

// Stats summarizes the stored ratings.
func (s *Service) Stats(ctx context.Context) (domain.RatingStats, error) {
	movies, err := s.store.List(ctx)
	if err != nil {
		return domain.RatingStats{}, err
	}
	return Stats(movies)
}

func (s *Service) resolve(ctx context.Context, title string) (string, error) {
	movies, err := s.store.List(ctx)
	if err != nil {
		return "", err
	}
	stored, ok := ResolveTitle(movies, title)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(title))
	}
	return stored, nil
}
