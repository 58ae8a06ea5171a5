package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when upstream cannot find the requested movie.
var ErrNotFound = errors.New("omdb: not found")

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "https://www.omdbapi.com/"

// Result contains the data used to fill in a new catalog entry. Year and
// Rating are nil when upstream has no usable value.
type Result struct {
	Title  string
	Year   *int
	Rating *float64
	Poster string
}

// Client defines the contract for querying the metadata API.
type Client interface {
	Fetch(ctx context.Context, title string) (*Result, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed OMDb client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Fetch looks a movie up by title.
func (c *HTTPClient) Fetch(ctx context.Context, title string) (*Result, error) {
	endpoint := *c.baseURL
	q := endpoint.Query()
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode omdb response: %w", err)
		}
		if !strings.EqualFold(payload.Response, "True") {
			if payload.Error != "" && !strings.Contains(strings.ToLower(payload.Error), "not found") {
				c.logger.Printf("omdb: lookup of %q failed: %s", title, payload.Error)
				return nil, fmt.Errorf("omdb: %s", payload.Error)
			}
			return nil, ErrNotFound
		}
		return convertToResult(payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Printf("omdb: unexpected status %d for title %q", resp.StatusCode, title)
		return nil, fmt.Errorf("omdb: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	IMDBRating string `json:"imdbRating"`
	Poster     string `json:"Poster"`
	Response   string `json:"Response"`
	Error      string `json:"Error,omitempty"`
}

const notAvailable = "N/A"

func convertToResult(payload apiResponse) *Result {
	result := &Result{Title: strings.TrimSpace(payload.Title)}
	if year, ok := parseYear(payload.Year); ok {
		result.Year = &year
	}
	if rating, err := strconv.ParseFloat(strings.TrimSpace(payload.IMDBRating), 64); err == nil {
		result.Rating = &rating
	}
	if poster := strings.TrimSpace(payload.Poster); poster != "" && poster != notAvailable {
		result.Poster = poster
	}
	return result
}

// parseYear reads the leading four digits, so ranges like "2008–2013" resolve
// to their first year.
func parseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return 0, false
	}
	year := 0
	for _, ch := range raw[:4] {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		year = year*10 + int(ch-'0')
	}
	return year, true
}
