package omdb

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(srv.URL, "key123", 2*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return client
}

func TestFetchSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apikey"); got != "key123" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.URL.Query().Get("t"); got != "The Matrix" {
			t.Errorf("t = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Title":"The Matrix","Year":"1999","imdbRating":"8.7","Poster":"https://img/matrix.jpg","Response":"True"}`))
	})

	result, err := client.Fetch(context.Background(), "The Matrix")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Title != "The Matrix" || result.Poster != "https://img/matrix.jpg" {
		t.Fatalf("result = %+v", result)
	}
	if result.Year == nil || *result.Year != 1999 {
		t.Fatalf("year = %v", result.Year)
	}
	if result.Rating == nil || *result.Rating != 8.7 {
		t.Fatalf("rating = %v", result.Rating)
	}
}

func TestFetchNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	})
	if _, err := client.Fetch(context.Background(), "Nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch err = %v, want ErrNotFound", err)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
	})
	_, err := client.Fetch(context.Background(), "Heat")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch err = %v, want upstream error", err)
	}
}

func TestFetchUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := client.Fetch(context.Background(), "Heat"); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestConvertToResult(t *testing.T) {
	tests := []struct {
		name       string
		payload    apiResponse
		wantYear   int
		wantRating bool
		wantPoster string
	}{
		{"series range", apiResponse{Year: "2008–2013", IMDBRating: "9.5", Poster: "p"}, 2008, true, "p"},
		{"missing values", apiResponse{Year: "N/A", IMDBRating: "N/A", Poster: "N/A"}, 0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertToResult(tt.payload)
			if tt.wantYear == 0 && got.Year != nil {
				t.Fatalf("year = %d, want nil", *got.Year)
			}
			if tt.wantYear != 0 && (got.Year == nil || *got.Year != tt.wantYear) {
				t.Fatalf("year = %v, want %d", got.Year, tt.wantYear)
			}
			if (got.Rating != nil) != tt.wantRating {
				t.Fatalf("rating = %v, want present=%v", got.Rating, tt.wantRating)
			}
			if got.Poster != tt.wantPoster {
				t.Fatalf("poster = %q, want %q", got.Poster, tt.wantPoster)
			}
		})
	}
}
