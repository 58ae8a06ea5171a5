package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/httpserver"
	"github.com/Clark-Hu/movie-catalog/internal/omdb"
	"github.com/Clark-Hu/movie-catalog/internal/shell"
)

// runFunc is a command body that receives an opened app.
type runFunc func(cmd *cobra.Command, a *app, args []string) error

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	withApp := func(run runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root := &cobra.Command{
		Use:          "movies",
		Short:        "Manage a personal movie catalog",
		Long:         "Manage a personal movie catalog stored as JSON, CSV, SQLite or PostgreSQL.\nWithout a subcommand the interactive menu starts.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         withApp(runShell),
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend: json, csv, sqlite or postgres (overrides MOVIES_BACKEND)")
	root.PersistentFlags().StringVar(&flags.data, "data", "", "data file path (overrides MOVIES_DATA_PATH)")

	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all movies",
			Args:  cobra.NoArgs,
			RunE:  withApp(runList),
		},
		newAddCmd(withApp),
		&cobra.Command{
			Use:   "delete TITLE",
			Short: "Delete a movie",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runDelete),
		},
		&cobra.Command{
			Use:   "update TITLE RATING",
			Short: "Update the rating of a movie",
			Args:  cobra.ExactArgs(2),
			RunE:  withApp(runUpdate),
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show rating statistics",
			Args:  cobra.NoArgs,
			RunE:  withApp(runStats),
		},
		&cobra.Command{
			Use:   "search QUERY",
			Short: "Search movies by part of the title",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runSearch),
		},
		newSortCmd(withApp),
		&cobra.Command{
			Use:   "random",
			Short: "Pick a random movie",
			Args:  cobra.NoArgs,
			RunE:  withApp(runRandom),
		},
		newWebsiteCmd(withApp),
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the catalog over HTTP",
			Args:  cobra.NoArgs,
			RunE:  withApp(runServe),
		},
	)
	return root
}

func runShell(cmd *cobra.Command, a *app, _ []string) error {
	sh := shell.New(shell.Options{
		Service:       a.svc,
		Lookup:        a.lookup,
		LookupTimeout: time.Duration(a.cfg.OMDbTimeoutSecs) * time.Second,
		Website:       a.site,
		WebsiteOutput: a.cfg.WebsiteOutput,
		Rand:          a.rnd,
		In:            cmd.InOrStdin(),
		Out:           cmd.OutOrStdout(),
		Logger:        a.logger,
	})
	err := sh.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runList(cmd *cobra.Command, a *app, _ []string) error {
	movies, err := a.svc.List(cmd.Context())
	if err != nil {
		return err
	}
	shell.NewPrinter(cmd.OutOrStdout()).Catalog(movies)
	return nil
}

func newAddCmd(withApp func(runFunc) func(*cobra.Command, []string) error) *cobra.Command {
	var (
		year   int
		rating float64
		poster string
	)
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a movie, filling missing details from OMDb when configured",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&year, "year", 0, "release year")
	cmd.Flags().Float64Var(&rating, "rating", 0, "rating from 1 to 10")
	cmd.Flags().StringVar(&poster, "poster", "", "poster URL")
	cmd.RunE = withApp(func(cmd *cobra.Command, a *app, args []string) error {
		movie := domain.Movie{Title: args[0], Year: year, Rating: rating, Poster: poster}
		if movie.Year == 0 || movie.Rating == 0 {
			movie = enrich(cmd.Context(), a, movie, cmd.Flags().Changed("poster"))
		}
		created, err := a.svc.Add(cmd.Context(), movie)
		if err != nil {
			return err
		}
		shell.NewPrinter(cmd.OutOrStdout()).Info("%s added successfully.", created.Title)
		return nil
	})
	return cmd
}

// enrich fills the zero fields of movie from the metadata lookup. Lookup
// failures leave movie unchanged so validation reports what is missing.
func enrich(ctx context.Context, a *app, movie domain.Movie, keepPoster bool) domain.Movie {
	if a.lookup == nil {
		return movie
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.OMDbTimeoutSecs)*time.Second)
	defer cancel()

	result, err := a.lookup.Fetch(ctx, movie.Title)
	if err != nil {
		if !errors.Is(err, omdb.ErrNotFound) {
			a.logger.Printf("omdb fetch failed for %s: %v", movie.Title, err)
		}
		return movie
	}
	if movie.Year == 0 && result.Year != nil {
		movie.Year = *result.Year
	}
	if movie.Rating == 0 && result.Rating != nil {
		movie.Rating = *result.Rating
	}
	if !keepPoster {
		movie.Poster = result.Poster
	}
	return movie
}

func runDelete(cmd *cobra.Command, a *app, args []string) error {
	stored, err := a.svc.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	shell.NewPrinter(cmd.OutOrStdout()).Info("%s deleted successfully.", stored)
	return nil
}

func runUpdate(cmd *cobra.Command, a *app, args []string) error {
	rating, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: rating %q is not a number", catalog.ErrInvalidInput, args[1])
	}
	updated, err := a.svc.UpdateRating(cmd.Context(), args[0], rating)
	if err != nil {
		return err
	}
	shell.NewPrinter(cmd.OutOrStdout()).Info("%s updated successfully.", updated.Title)
	return nil
}

func runStats(cmd *cobra.Command, a *app, _ []string) error {
	stats, err := a.svc.Stats(cmd.Context())
	p := shell.NewPrinter(cmd.OutOrStdout())
	if errors.Is(err, catalog.ErrEmptyCatalog) {
		p.Warn("No movies in database.")
		return nil
	}
	if err != nil {
		return err
	}
	p.Stats(stats)
	return nil
}

func runSearch(cmd *cobra.Command, a *app, args []string) error {
	movies, err := a.svc.List(cmd.Context())
	if err != nil {
		return err
	}
	p := shell.NewPrinter(cmd.OutOrStdout())
	matches := catalog.Search(movies, args[0])
	if len(matches) == 0 {
		p.Warn("No matches found.")
		return nil
	}
	p.Movies(matches)
	return nil
}

func newSortCmd(withApp func(runFunc) func(*cobra.Command, []string) error) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "List movies sorted by rating or year",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&by, "by", "rating", "sort key: rating or year")
	cmd.RunE = withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		movies, err := a.svc.List(cmd.Context())
		if err != nil {
			return err
		}
		var sorted []domain.Movie
		switch by {
		case "rating":
			sorted = catalog.SortByRating(movies)
		case "year":
			sorted = catalog.SortByYear(movies)
		default:
			return fmt.Errorf("%w: --by must be rating or year", catalog.ErrInvalidInput)
		}
		shell.NewPrinter(cmd.OutOrStdout()).Movies(sorted)
		return nil
	})
	return cmd
}

func runRandom(cmd *cobra.Command, a *app, _ []string) error {
	movies, err := a.svc.List(cmd.Context())
	if err != nil {
		return err
	}
	p := shell.NewPrinter(cmd.OutOrStdout())
	movie, err := catalog.Random(movies, a.rnd)
	if errors.Is(err, catalog.ErrEmptyCatalog) {
		p.Warn("No movies available.")
		return nil
	}
	if err != nil {
		return err
	}
	p.Info("Your movie for tonight:")
	p.Movie(movie)
	return nil
}

func newWebsiteCmd(withApp func(runFunc) func(*cobra.Command, []string) error) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "website",
		Short: "Generate the static catalog page",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&output, "output", "", "output file (overrides WEBSITE_OUTPUT)")
	cmd.RunE = withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		if output == "" {
			output = a.cfg.WebsiteOutput
		}
		movies, err := a.svc.List(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.site.WriteFile(movies, output); err != nil {
			return err
		}
		shell.NewPrinter(cmd.OutOrStdout()).Info("Website was generated successfully: %s", output)
		return nil
	})
	return cmd
}

func runServe(cmd *cobra.Command, a *app, _ []string) error {
	if err := a.cfg.ValidateServer(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	ctx := cmd.Context()
	server := httpserver.New(a.cfg, a.store, a.svc, a.lookup, a.site, a.logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	var serveErr error
	select {
	case serveErr = <-serverErrCh:
		if serveErr != nil && errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Printf("graceful shutdown error: %v", err)
	}
	return serveErr
}
