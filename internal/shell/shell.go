// Package shell implements the interactive menu loop of the movie catalog.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/omdb"
	"github.com/Clark-Hu/movie-catalog/internal/website"
)

// Options wires the shell's collaborators. Lookup may be nil to disable
// metadata enrichment.
type Options struct {
	Service       *catalog.Service
	Lookup        omdb.Client
	LookupTimeout time.Duration
	Website       website.Generator
	WebsiteOutput string
	Rand          *rand.Rand
	In            io.Reader
	Out           io.Writer
	Logger        *log.Logger
}

// Shell is a line-oriented menu over a catalog service.
type Shell struct {
	svc           *catalog.Service
	lookup        omdb.Client
	lookupTimeout time.Duration
	site          website.Generator
	siteOutput    string
	rnd           *rand.Rand
	in            *bufio.Reader
	out           io.Writer
	print         Printer
	logger        *log.Logger
}

type menuItem struct {
	key    string
	label  string
	action func(*Shell, context.Context) error
}

var menu = []menuItem{
	{"0", "Exit", nil},
	{"1", "List movies", (*Shell).listMovies},
	{"2", "Add movie", (*Shell).addMovie},
	{"3", "Delete movie", (*Shell).deleteMovie},
	{"4", "Update movie", (*Shell).updateMovie},
	{"5", "Stats", (*Shell).showStats},
	{"6", "Random movie", (*Shell).randomMovie},
	{"7", "Search movie", (*Shell).searchMovie},
	{"8", "Movies sorted by rating", (*Shell).sortedByRating},
	{"9", "Generate website", (*Shell).generateWebsite},
}

// New builds a Shell from opts.
func New(opts Options) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Shell{
		svc:           opts.Service,
		lookup:        opts.Lookup,
		lookupTimeout: timeout,
		site:          opts.Website,
		siteOutput:    opts.WebsiteOutput,
		rnd:           rnd,
		in:            bufio.NewReader(opts.In),
		out:           opts.Out,
		print:         NewPrinter(opts.Out),
		logger:        logger,
	}
}

// Run shows the menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, color.Blue.Sprint("\n********** My Movies Database **********\n"))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printMenu()
		choice, err := s.prompt(fmt.Sprintf("Enter choice (0-%d): ", len(menu)-1))
		if err != nil {
			return ignoreEOF(err)
		}

		item, ok := lookupMenu(choice)
		switch {
		case !ok:
			s.print.Error("Invalid choice. Please enter a number between 0 and %d.", len(menu)-1)
		case item.action == nil:
			s.print.Info("Bye!")
			return nil
		default:
			if err := item.action(s, ctx); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				if errors.Is(err, context.Canceled) {
					return err
				}
				s.logger.Printf("shell: %s failed: %v", strings.ToLower(item.label), err)
				s.print.Error("Error: %v", err)
			}
		}

		if _, err := s.prompt("\nPress Enter to continue..."); err != nil {
			return ignoreEOF(err)
		}
	}
}

func lookupMenu(choice string) (menuItem, bool) {
	for _, item := range menu {
		if item.key == choice {
			return item, true
		}
	}
	return menuItem{}, false
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Shell) printMenu() {
	s.print.Info("\nMenu:")
	for _, item := range menu {
		fmt.Fprintf(s.out, "%s. %s\n", item.key, item.label)
	}
}

// prompt prints label and returns the trimmed next line. A final line without
// a newline is returned; io.EOF is returned only when nothing is left.
func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, color.Yellow.Sprint(label))
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *Shell) promptTitle(label string) (string, error) {
	for {
		raw, err := s.prompt(label)
		if err != nil {
			return "", err
		}
		title, err := catalog.ValidateTitle(raw)
		if err == nil {
			return title, nil
		}
		s.print.Error("Movie name cannot be empty.")
	}
}

func (s *Shell) promptRating(label string) (float64, error) {
	for {
		raw, err := s.prompt(label)
		if err != nil {
			return 0, err
		}
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.print.Error("Invalid input. Enter a number.")
			continue
		}
		if err := catalog.ValidateRating(rating); err != nil {
			s.print.Error("Rating must be between 1 and 10.")
			continue
		}
		return rating, nil
	}
}

func (s *Shell) promptYear(label string) (int, error) {
	for {
		raw, err := s.prompt(label)
		if err != nil {
			return 0, err
		}
		year, err := strconv.Atoi(raw)
		if err != nil {
			s.print.Error("Invalid input. Enter a valid year.")
			continue
		}
		if err := catalog.ValidateYear(year); err != nil {
			s.print.Error("Year must be between %d and %d.", catalog.MinYear, time.Now().Year()+10)
			continue
		}
		return year, nil
	}
}

func (s *Shell) listMovies(ctx context.Context) error {
	movies, err := s.svc.List(ctx)
	if err != nil {
		return err
	}
	s.print.Catalog(movies)
	return nil
}

func (s *Shell) addMovie(ctx context.Context) error {
	title, err := s.promptTitle("Enter movie name: ")
	if err != nil {
		return err
	}
	if exists, err := s.svc.Exists(ctx, title); err != nil {
		return err
	} else if exists {
		s.print.Warn("%s already exists.", title)
		return nil
	}

	movie := domain.Movie{Title: title}
	var haveYear, haveRating bool
	if s.lookup != nil {
		if result, ok := s.enrich(ctx, title); ok {
			if result.Title != "" {
				movie.Title = result.Title
			}
			if result.Year != nil && catalog.ValidateYear(*result.Year) == nil {
				movie.Year, haveYear = *result.Year, true
			}
			if result.Rating != nil && catalog.ValidateRating(*result.Rating) == nil {
				movie.Rating, haveRating = *result.Rating, true
			}
			movie.Poster = result.Poster
		}
	}

	if !haveRating {
		if movie.Rating, err = s.promptRating("Enter rating (1-10): "); err != nil {
			return err
		}
	}
	if !haveYear {
		if movie.Year, err = s.promptYear("Enter release year: "); err != nil {
			return err
		}
	}

	added, err := s.svc.Add(ctx, movie)
	if errors.Is(err, catalog.ErrAlreadyExists) {
		s.print.Warn("%s already exists.", movie.Title)
		return nil
	}
	if err != nil {
		return err
	}
	s.print.Info("%s added successfully.", added.Title)
	return nil
}

func (s *Shell) enrich(ctx context.Context, title string) (*omdb.Result, bool) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	result, err := s.lookup.Fetch(lookupCtx, title)
	switch {
	case err == nil:
		s.print.Info("Found %s in OMDb.", title)
		return result, true
	case errors.Is(err, omdb.ErrNotFound):
		s.print.Warn("%s was not found in OMDb, enter the details manually.", title)
	default:
		s.logger.Printf("shell: omdb lookup for %q failed: %v", title, err)
		s.print.Warn("OMDb is not reachable, enter the details manually.")
	}
	return nil, false
}

func (s *Shell) deleteMovie(ctx context.Context) error {
	title, err := s.promptTitle("Enter movie name to delete: ")
	if err != nil {
		return err
	}
	deleted, err := s.svc.Delete(ctx, title)
	if errors.Is(err, catalog.ErrNotFound) {
		s.print.Warn("Movie not found.")
		return nil
	}
	if err != nil {
		return err
	}
	s.print.Info("%s deleted.", deleted)
	return nil
}

func (s *Shell) updateMovie(ctx context.Context) error {
	title, err := s.promptTitle("Enter movie name to update: ")
	if err != nil {
		return err
	}
	if exists, err := s.svc.Exists(ctx, title); err != nil {
		return err
	} else if !exists {
		s.print.Warn("Movie not found.")
		return nil
	}
	rating, err := s.promptRating("Enter new rating (1-10): ")
	if err != nil {
		return err
	}
	updated, err := s.svc.UpdateRating(ctx, title, rating)
	if errors.Is(err, catalog.ErrNotFound) {
		s.print.Warn("Movie not found.")
		return nil
	}
	if err != nil {
		return err
	}
	s.print.Info("%s updated successfully.", updated.Title)
	return nil
}

func (s *Shell) showStats(ctx context.Context) error {
	stats, err := s.svc.Stats(ctx)
	if errors.Is(err, catalog.ErrEmptyCatalog) {
		s.print.Warn("No movies in database.")
		return nil
	}
	if err != nil {
		return err
	}
	s.print.Stats(stats)
	return nil
}

func (s *Shell) randomMovie(ctx context.Context) error {
	movies, err := s.svc.List(ctx)
	if err != nil {
		return err
	}
	movie, err := catalog.Random(movies, s.rnd)
	if errors.Is(err, catalog.ErrEmptyCatalog) {
		s.print.Warn("No movies available.")
		return nil
	}
	if err != nil {
		return err
	}
	s.print.Info("Your movie for tonight:")
	s.print.Movie(movie)
	return nil
}

func (s *Shell) searchMovie(ctx context.Context) error {
	query, err := s.prompt("Enter part of movie name: ")
	if err != nil {
		return err
	}
	movies, err := s.svc.List(ctx)
	if err != nil {
		return err
	}
	found := catalog.Search(movies, query)
	if len(found) == 0 {
		s.print.Warn("No matches found.")
		return nil
	}
	s.print.Movies(found)
	return nil
}

func (s *Shell) sortedByRating(ctx context.Context) error {
	movies, err := s.svc.List(ctx)
	if err != nil {
		return err
	}
	s.print.Info("Movies sorted by rating:")
	s.print.Movies(catalog.SortByRating(movies))
	return nil
}

func (s *Shell) generateWebsite(ctx context.Context) error {
	movies, err := s.svc.List(ctx)
	if err != nil {
		return err
	}
	if err := s.site.WriteFile(movies, s.siteOutput); err != nil {
		return err
	}
	s.print.Info("Website was generated successfully: %s", s.siteOutput)
	return nil
}
