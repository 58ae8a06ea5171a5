package httpserver

import (
	"net/url"
	"testing"

	"github.com/Clark-Hu/movie-catalog/internal/config"
)

func TestBuildListOptions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    listOptions
		wantErr bool
	}{
		{"empty", "", listOptions{}, false},
		{"query trimmed", "q=+heat+", listOptions{Query: "heat"}, false},
		{"sort lowercased", "sort=RATING", listOptions{Sort: "rating"}, false},
		{"sort year", "sort=year&q=a", listOptions{Query: "a", Sort: "year"}, false},
		{"invalid sort", "sort=genre", listOptions{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got, err := buildListOptions(values)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildListOptions: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVerifyBearer(t *testing.T) {
	srv := &Server{cfg: config.Config{AuthToken: "secret"}}

	tests := []struct {
		header string
		want   bool
	}{
		{"Bearer secret", true},
		{"Bearer  secret ", true},
		{"Bearer wrong", false},
		{"Bearer ", false},
		{"secret", false},
		{"Basic secret", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := srv.verifyBearer(tt.header); got != tt.want {
			t.Fatalf("verifyBearer(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
