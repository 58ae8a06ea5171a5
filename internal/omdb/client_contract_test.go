package omdb

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"
)

// TestHTTPClientSmoke runs against a live OMDb-compatible service when
// OMDB_API_KEY is provided.
func TestHTTPClientSmoke(t *testing.T) {
	apiKey := os.Getenv("OMDB_API_KEY")
	if apiKey == "" {
		t.Skip("OMDB_API_KEY not provided")
	}
	client, err := NewHTTPClient(os.Getenv("OMDB_URL"), apiKey, 3*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Fetch(ctx, "Inception")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Year == nil || *result.Year != 2010 {
		t.Fatalf("unexpected payload: %+v", result)
	}
}
