package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
)

// movieEntry mirrors the subset of the OMDb title response the catalog reads.
type movieEntry struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	ImdbRating string `json:"imdbRating"`
	Poster     string `json:"Poster"`
}

type omdbResponse struct {
	movieEntry
	Response string `json:"Response"`
	Error    string `json:"Error,omitempty"`
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "cmd/omdb-mock/mock-omdb.json", "path to mock data file")
		apiKey  = flag.String("apikey", "mock", "api key clients must send")
		logReqs = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read mock data: %v", err)
	}

	var payload map[string]movieEntry
	if err := json.Unmarshal(file, &payload); err != nil {
		log.Fatalf("parse mock data: %v", err)
	}

	addr := ":" + *port
	log.Printf("mock omdb listening on %s with %d entries", addr, len(payload))
	if err := http.ListenAndServe(addr, newMux(payload, *apiKey, *logReqs)); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// newMux answers OMDb title lookups from payload. Titles match case-insensitively.
func newMux(payload map[string]movieEntry, apiKey string, logReqs bool) *http.ServeMux {
	index := make(map[string]movieEntry, len(payload))
	for title, entry := range payload {
		if entry.Title == "" {
			entry.Title = title
		}
		index[strings.ToLower(title)] = entry
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if logReqs {
			log.Printf("lookup t=%q", query.Get("t"))
		}

		w.Header().Set("Content-Type", "application/json")
		if query.Get("apikey") != apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(omdbResponse{Response: "False", Error: "Invalid API key!"})
			return
		}

		entry, ok := index[strings.ToLower(strings.TrimSpace(query.Get("t")))]
		if !ok {
			_ = json.NewEncoder(w).Encode(omdbResponse{Response: "False", Error: "Movie not found!"})
			return
		}
		if err := json.NewEncoder(w).Encode(omdbResponse{movieEntry: entry, Response: "True"}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}
