package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// JSONStore keeps the catalog in a single JSON object keyed by title:
//
//	{
//	    "Inception": {
//	        "year": 2010,
//	        "rating": 8.8,
//	        "poster": "https://..."
//	    }
//	}
//
// A file that is not a JSON object is treated as an empty catalog and
// logged; the next mutation overwrites it. A single record that does not
// decode is skipped and logged, the rest are kept.
type JSONStore struct {
	path   string
	logger *log.Logger
}

type jsonRecord struct {
	Year   flexibleYear `json:"year"`
	Rating float64      `json:"rating"`
	Poster string       `json:"poster,omitempty"`
}

// flexibleYear accepts both 2010 and "2010" on read.
type flexibleYear int

func (y *flexibleYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*y = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid year %q", s)
		}
		*y = flexibleYear(v)
		return nil
	}
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v != nil {
		*y = flexibleYear(int(*v))
	}
	return nil
}

// NewJSONStore returns a store backed by path, creating an empty "{}" file
// (and parent directories) when none exists.
func NewJSONStore(path string, logger *log.Logger) (*JSONStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage: json path is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	created, err := ensureFile(path, []byte("{}\n"))
	if err != nil {
		return nil, err
	}
	if created {
		logger.Printf("storage: created empty catalog at %s", path)
	}
	return &JSONStore{path: path, logger: logger}, nil
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) List(ctx context.Context) (domain.Collection, error) {
	return list(ctx, s)
}

func (s *JSONStore) Add(ctx context.Context, movie domain.Movie) error {
	return rewrite(ctx, s, putMovie(movie))
}

func (s *JSONStore) Delete(ctx context.Context, title string) error {
	return rewrite(ctx, s, removeMovie(title))
}

func (s *JSONStore) Update(ctx context.Context, title string, rating float64) error {
	return rewrite(ctx, s, setRating(title, rating))
}

func (s *JSONStore) load(_ context.Context) (domain.Collection, error) {
	movies := make(domain.Collection)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return movies, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return movies, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Printf("storage: %s is malformed, treating as empty: %v", s.path, err)
		return movies, nil
	}
	for title, payload := range raw {
		var rec jsonRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			s.logger.Printf("storage: skipping record %q in %s: %v", title, s.path, err)
			continue
		}
		movies[title] = domain.Movie{
			Title:  title,
			Year:   int(rec.Year),
			Rating: rec.Rating,
			Poster: rec.Poster,
		}
	}
	return movies, nil
}

func (s *JSONStore) save(_ context.Context, movies domain.Collection) error {
	raw := make(map[string]jsonRecord, len(movies))
	for title, movie := range movies {
		raw[title] = jsonRecord{
			Year:   flexibleYear(movie.Year),
			Rating: movie.Rating,
			Poster: movie.Poster,
		}
	}
	payload, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	return os.WriteFile(s.path, payload, 0o644)
}
