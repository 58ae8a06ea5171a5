package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/omdb"
	"github.com/Clark-Hu/movie-catalog/internal/storage"
	"github.com/Clark-Hu/movie-catalog/internal/website"
)

// globalFlags are the persistent flags that override environment settings.
type globalFlags struct {
	envFile string
	backend string
	data    string
}

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg    config.Config
	logger *log.Logger
	store  storage.Storage
	svc    *catalog.Service
	lookup omdb.Client
	site   website.Generator
	rnd    *rand.Rand
}

func openApp(ctx context.Context, flags *globalFlags, logOut io.Writer) (*app, error) {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if flags.backend != "" {
		cfg.Backend = strings.ToLower(flags.backend)
		if flags.data == "" && os.Getenv("MOVIES_DATA_PATH") == "" {
			cfg.DataPath = storage.DefaultPath(cfg.Backend)
		}
	}
	if flags.data != "" {
		cfg.DataPath = flags.data
	}

	logger := log.New(logOut, "[movies] ", log.LstdFlags|log.Lshortfile)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := cfg.StorageOptions()
	storeOpts.Logger = logger
	st, err := storage.Open(dbCtx, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var lookup omdb.Client
	if cfg.EnrichmentEnabled() {
		client, err := omdb.NewHTTPClient(cfg.OMDbURL, cfg.OMDbAPIKey, time.Duration(cfg.OMDbTimeoutSecs)*time.Second, logger)
		if err != nil {
			closeStore(st, logger)
			return nil, fmt.Errorf("init omdb client: %w", err)
		}
		lookup = client
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		svc:    catalog.NewService(st, logger),
		lookup: lookup,
		site: website.Generator{
			TemplatePath: cfg.WebsiteTemplate,
			Title:        cfg.WebsiteTitle,
			Logger:       logger,
		},
		rnd: rand.New(rand.NewSource(seed)),
	}, nil
}

func (a *app) Close() {
	closeStore(a.store, a.logger)
}

func closeStore(st storage.Storage, logger *log.Logger) {
	closer, ok := st.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Printf("close storage: %v", err)
	}
}
