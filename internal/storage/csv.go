package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// CSVStore keeps the catalog as one "title,year,rating" line per movie with
// no header and no quoting. Posters cannot be represented and are dropped.
//
// A title containing a comma is written as-is; the resulting line has more
// than three fields and is skipped on the next read.
type CSVStore struct {
	path   string
	logger *log.Logger
}

// NewCSVStore returns a store backed by path, creating an empty file when
// none exists.
func NewCSVStore(path string, logger *log.Logger) (*CSVStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage: csv path is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	created, err := ensureFile(path, nil)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Printf("storage: created empty catalog at %s", path)
	}
	return &CSVStore{path: path, logger: logger}, nil
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) List(ctx context.Context) (domain.Collection, error) {
	return list(ctx, s)
}

func (s *CSVStore) Add(ctx context.Context, movie domain.Movie) error {
	return rewrite(ctx, s, putMovie(movie))
}

func (s *CSVStore) Delete(ctx context.Context, title string) error {
	return rewrite(ctx, s, removeMovie(title))
}

func (s *CSVStore) Update(ctx context.Context, title string, rating float64) error {
	return rewrite(ctx, s, setRating(title, rating))
}

func (s *CSVStore) load(_ context.Context) (domain.Collection, error) {
	movies := make(domain.Collection)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return movies, nil
		}
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		movie, ok := parseCSVLine(line)
		if !ok {
			continue
		}
		movies[movie.Title] = movie
	}
	return movies, nil
}

// parseCSVLine reports false for blank lines, lines without exactly three
// fields, and lines whose year or rating is not numeric.
func parseCSVLine(line string) (domain.Movie, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return domain.Movie{}, false
	}
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return domain.Movie{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.Movie{}, false
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return domain.Movie{}, false
	}
	return domain.Movie{Title: parts[0], Year: year, Rating: rating}, true
}

func formatCSVLine(movie domain.Movie) string {
	return movie.Title + "," + strconv.Itoa(movie.Year) + "," + strconv.FormatFloat(movie.Rating, 'f', -1, 64)
}

func (s *CSVStore) save(_ context.Context, movies domain.Collection) error {
	var b strings.Builder
	for _, movie := range movies.Sorted() {
		b.WriteString(formatCSVLine(movie))
		b.WriteByte('\n')
	}
	return os.WriteFile(s.path, []byte(b.String()), 0o644)
}
