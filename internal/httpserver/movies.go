package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/omdb"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type movieCreateRequest struct {
	Title  string   `json:"title"`
	Year   *int     `json:"year"`
	Rating *float64 `json:"rating"`
	Poster *string  `json:"poster"`
}

type ratingRequest struct {
	Rating *float64 `json:"rating"`
}

type movieResponse struct {
	Title  string  `json:"title"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
	Poster string  `json:"poster,omitempty"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
	Count int             `json:"count"`
}

type statsResponse struct {
	Count   int             `json:"count"`
	Average float64         `json:"average"`
	Median  float64         `json:"median"`
	Best    []movieResponse `json:"best"`
	Worst   []movieResponse `json:"worst"`
}

// listOptions captures the query parameters of GET /movies.
type listOptions struct {
	Query string
	Sort  string
}

func buildListOptions(query url.Values) (listOptions, error) {
	opts := listOptions{
		Query: strings.TrimSpace(query.Get("q")),
		Sort:  strings.ToLower(strings.TrimSpace(query.Get("sort"))),
	}
	switch opts.Sort {
	case "", "title", "rating", "year":
	default:
		return opts, fmt.Errorf("invalid sort value")
	}
	return opts, nil
}

func applyListOptions(movies domain.Collection, opts listOptions) []domain.Movie {
	if opts.Query != "" {
		matched := make(domain.Collection)
		for _, m := range catalog.Search(movies, opts.Query) {
			matched[m.Title] = m
		}
		movies = matched
	}
	switch opts.Sort {
	case "rating":
		return catalog.SortByRating(movies)
	case "year":
		return catalog.SortByYear(movies)
	default:
		return movies.Sorted()
	}
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	opts, err := buildListOptions(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movies, err := s.svc.List(r.Context())
	if err != nil {
		s.logger.Printf("list movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movies")
		return
	}

	ordered := applyListOptions(movies, opts)
	items := make([]movieResponse, 0, len(ordered))
	for _, movie := range ordered {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items, Count: len(items)})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	movies, err := s.svc.List(r.Context())
	if err != nil {
		s.logger.Printf("get movie error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movie")
		return
	}
	stored, ok := catalog.ResolveTitle(movies, title)
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movies[stored]))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil && !errors.Is(err, catalog.ErrEmptyCatalog) {
		s.logger.Printf("stats error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute stats")
		return
	}
	s.respondJSON(w, http.StatusOK, statsResponse{
		Count:   stats.Count,
		Average: stats.Average,
		Median:  stats.Median,
		Best:    toMovieResponses(stats.Best),
		Worst:   toMovieResponses(stats.Worst),
	})
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required")
		return
	}

	movie := s.enrichMovie(r.Context(), req)
	if movie.Year == 0 || movie.Rating == 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "year and rating are required when no metadata is available")
		return
	}

	created, err := s.svc.Add(r.Context(), movie)
	if err != nil {
		s.respondServiceError(w, err, "Failed to create movie")
		return
	}

	location := fmt.Sprintf("/movies/%s", url.PathEscape(created.Title))
	w.Header().Set("Location", location)
	s.respondJSON(w, http.StatusCreated, toMovieResponse(created))
}

// enrichMovie fills year, rating and poster the request left out from the
// metadata lookup. Values from the request always win.
func (s *Server) enrichMovie(ctx context.Context, req movieCreateRequest) domain.Movie {
	movie := domain.Movie{Title: strings.TrimSpace(req.Title)}
	if req.Year != nil {
		movie.Year = *req.Year
	}
	if req.Rating != nil {
		movie.Rating = *req.Rating
	}
	if req.Poster != nil {
		movie.Poster = strings.TrimSpace(*req.Poster)
	}
	if s.lookup == nil || (req.Year != nil && req.Rating != nil && req.Poster != nil) {
		return movie
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.OMDbTimeoutSecs)*time.Second)
	defer cancel()

	result, err := s.lookup.Fetch(ctx, movie.Title)
	if err != nil {
		if !errors.Is(err, omdb.ErrNotFound) {
			s.logger.Printf("omdb fetch failed for %s: %v", movie.Title, err)
		}
		return movie
	}
	if req.Year == nil && result.Year != nil {
		movie.Year = *result.Year
	}
	if req.Rating == nil && result.Rating != nil {
		movie.Rating = *result.Rating
	}
	if req.Poster == nil {
		movie.Poster = result.Poster
	}
	return movie
}

func (s *Server) handleUpdateRating(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Rating == nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating is required")
		return
	}

	updated, err := s.svc.UpdateRating(r.Context(), title, *req.Rating)
	if err != nil {
		s.respondServiceError(w, err, "Failed to update movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(updated))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if _, err := s.svc.Delete(r.Context(), title); err != nil {
		s.respondServiceError(w, err, "Failed to delete movie")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, catalog.ErrAlreadyExists):
		s.respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, catalog.ErrInvalidInput):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	default:
		s.logger.Printf("%s: %v", strings.ToLower(fallback), err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		Title:  movie.Title,
		Year:   movie.Year,
		Rating: movie.Rating,
		Poster: movie.Poster,
	}
}

func toMovieResponses(movies []domain.Movie) []movieResponse {
	out := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return out
}

// decodeTitleParam returns the {title} route parameter. chi matches against
// RawPath when the request has one, and the parameter is still escaped then.
func decodeTitleParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "title")
	if raw == "" {
		return "", fmt.Errorf("missing title parameter")
	}
	if r.URL.RawPath == "" {
		return raw, nil
	}
	title, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid title parameter")
	}
	return title, nil
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token != "" && token == s.cfg.AuthToken
}
