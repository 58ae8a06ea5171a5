package storage

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

type backendFactory struct {
	name        string
	keepsPoster bool
	newStore    func(t *testing.T) Storage
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func fileBackends() []backendFactory {
	return []backendFactory{
		{
			name:        BackendJSON,
			keepsPoster: true,
			newStore: func(t *testing.T) Storage {
				st, err := NewJSONStore(filepath.Join(t.TempDir(), "movies.json"), discardLogger())
				if err != nil {
					t.Fatalf("NewJSONStore: %v", err)
				}
				return st
			},
		},
		{
			name:        BackendCSV,
			keepsPoster: false,
			newStore: func(t *testing.T) Storage {
				st, err := NewCSVStore(filepath.Join(t.TempDir(), "movies.csv"), discardLogger())
				if err != nil {
					t.Fatalf("NewCSVStore: %v", err)
				}
				return st
			},
		},
		{
			name:        BackendSQLite,
			keepsPoster: true,
			newStore: func(t *testing.T) Storage {
				st, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "movies.db"), discardLogger())
				if err != nil {
					t.Fatalf("NewSQLiteStore: %v", err)
				}
				t.Cleanup(func() { _ = st.Close() })
				return st
			},
		},
	}
}

func mustList(t *testing.T, st Storage) domain.Collection {
	t.Helper()
	movies, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return movies
}

func mustAdd(t *testing.T, st Storage, movie domain.Movie) {
	t.Helper()
	if err := st.Add(context.Background(), movie); err != nil {
		t.Fatalf("Add(%q): %v", movie.Title, err)
	}
}

// runContract exercises the behaviour every backend must share.
func runContract(t *testing.T, b backendFactory) {
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		st := b.newStore(t)
		if got := mustList(t, st); len(got) != 0 {
			t.Fatalf("List() = %v, want empty", got)
		}
	})

	t.Run("add then list", func(t *testing.T) {
		st := b.newStore(t)
		mustAdd(t, st, domain.Movie{Title: "Inception", Year: 2010, Rating: 8.8, Poster: "url"})

		want := domain.Movie{Title: "Inception", Year: 2010, Rating: 8.8}
		if b.keepsPoster {
			want.Poster = "url"
		}
		got := mustList(t, st)
		if len(got) != 1 || got["Inception"] != want {
			t.Fatalf("List() = %+v, want only %+v", got, want)
		}
	})

	t.Run("add overwrites existing title", func(t *testing.T) {
		st := b.newStore(t)
		mustAdd(t, st, domain.Movie{Title: "Heat", Year: 1995, Rating: 8.3})
		mustAdd(t, st, domain.Movie{Title: "Heat", Year: 1986, Rating: 6.1})

		got := mustList(t, st)
		if got["Heat"].Year != 1986 || got["Heat"].Rating != 6.1 {
			t.Fatalf("Heat = %+v, want last write", got["Heat"])
		}
	})

	t.Run("absent title mutations are no-ops", func(t *testing.T) {
		st := b.newStore(t)
		mustAdd(t, st, domain.Movie{Title: "Alien", Year: 1979, Rating: 8.5})
		before := mustList(t, st)

		if err := st.Delete(ctx, "Aliens"); err != nil {
			t.Fatalf("Delete absent: %v", err)
		}
		if err := st.Update(ctx, "alien", 1); err != nil {
			t.Fatalf("Update absent: %v", err)
		}
		if after := mustList(t, st); !reflect.DeepEqual(before, after) {
			t.Fatalf("collection changed: before %+v after %+v", before, after)
		}
	})

	t.Run("update changes only rating", func(t *testing.T) {
		st := b.newStore(t)
		mustAdd(t, st, domain.Movie{Title: "Arrival", Year: 2016, Rating: 7.9, Poster: "p.jpg"})
		before := mustList(t, st)["Arrival"]

		if err := st.Update(ctx, "Arrival", 9.1); err != nil {
			t.Fatalf("Update: %v", err)
		}
		after := mustList(t, st)["Arrival"]
		if after.Rating != 9.1 {
			t.Fatalf("rating = %v, want 9.1", after.Rating)
		}
		if after.Year != before.Year || after.Poster != before.Poster {
			t.Fatalf("update touched other fields: before %+v after %+v", before, after)
		}
	})

	t.Run("delete twice equals delete once", func(t *testing.T) {
		st := b.newStore(t)
		mustAdd(t, st, domain.Movie{Title: "Jaws", Year: 1975, Rating: 8.1})
		mustAdd(t, st, domain.Movie{Title: "Up", Year: 2009, Rating: 8.3})

		for i := 0; i < 2; i++ {
			if err := st.Delete(ctx, "Jaws"); err != nil {
				t.Fatalf("Delete #%d: %v", i+1, err)
			}
		}
		got := mustList(t, st)
		if _, ok := got["Jaws"]; ok || len(got) != 1 {
			t.Fatalf("List() = %+v, want only Up", got)
		}
	})

	t.Run("round trip keeps tuples", func(t *testing.T) {
		st := b.newStore(t)
		input := domain.Collection{
			"The Godfather":         {Title: "The Godfather", Year: 1972, Rating: 9.2},
			"The Room":              {Title: "The Room", Year: 2003, Rating: 3.6},
			"Everything Everywhere": {Title: "Everything Everywhere", Year: 2022, Rating: 8.9},
			"Star Wars: Episode V":  {Title: "Star Wars: Episode V", Year: 1980, Rating: 8.7},
		}
		for _, movie := range input.Sorted() {
			mustAdd(t, st, movie)
		}
		if got := mustList(t, st); !reflect.DeepEqual(got, input) {
			t.Fatalf("List() = %+v, want %+v", got, input)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		st := b.newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := st.List(cctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("List() err = %v, want context.Canceled", err)
		}
		if err := st.Add(cctx, domain.Movie{Title: "x"}); !errors.Is(err, context.Canceled) {
			t.Fatalf("Add() err = %v, want context.Canceled", err)
		}
	})
}

func TestStorageContract(t *testing.T) {
	for _, b := range fileBackends() {
		t.Run(b.name, func(t *testing.T) {
			runContract(t, b)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		opts    Options
		want    any
		wantErr error
	}{
		{"default is json", Options{Path: filepath.Join(dir, "a.json")}, &JSONStore{}, nil},
		{"json", Options{Backend: "JSON", Path: filepath.Join(dir, "b.json")}, &JSONStore{}, nil},
		{"csv", Options{Backend: "csv", Path: filepath.Join(dir, "c.csv")}, &CSVStore{}, nil},
		{"sqlite", Options{Backend: "sqlite", Path: filepath.Join(dir, "d.db")}, &SQLiteStore{}, nil},
		{"unknown", Options{Backend: "yaml"}, nil, ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = discardLogger()
			st, err := Open(ctx, tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			if c, ok := st.(io.Closer); ok {
				t.Cleanup(func() { _ = c.Close() })
			}
			if reflect.TypeOf(st) != reflect.TypeOf(tt.want) {
				t.Fatalf("Open() type = %T, want %T", st, tt.want)
			}
		})
	}
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: BackendPostgres, Logger: discardLogger()})
	if err == nil {
		t.Fatalf("expected error without database url")
	}
}

func TestDefaultPath(t *testing.T) {
	cases := map[string]string{
		"":       "data/data.json",
		"json":   "data/data.json",
		"csv":    "data/data.csv",
		"sqlite": "data/data.db",
	}
	for backend, want := range cases {
		if got := DefaultPath(backend); got != want {
			t.Fatalf("DefaultPath(%q) = %s, want %s", backend, got, want)
		}
	}
}
