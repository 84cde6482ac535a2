package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/offer-comb/app/api"
	"github.com/lysyi3m/offer-comb/app/cache"
	"github.com/lysyi3m/offer-comb/app/cfg"
	"github.com/lysyi3m/offer-comb/app/database"
	"github.com/lysyi3m/offer-comb/app/feed"
	"github.com/lysyi3m/offer-comb/app/paapi"
	"github.com/lysyi3m/offer-comb/app/relevance"
	"github.com/lysyi3m/offer-comb/app/scrape"
	"github.com/lysyi3m/offer-comb/app/search"
	"github.com/lysyi3m/offer-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)
	slog.Info("Starting Offer Comb", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	productRepo := database.NewProductRepository(db)
	searcher := feed.NewSearcher(productRepo)
	importer := feed.NewImporter(productRepo, feed.ImporterOptions{
		Delimiter: appCfg.FeedDelimiter,
		BatchSize: appCfg.FeedBatchSize,
		UserAgent: appCfg.UserAgent,
	})
	if appCfg.FeedURL == "" {
		slog.Warn("FEED_URL not set, partner feed import disabled")
	}

	resultCache, closeCache := newCache(appCfg, db)
	defer closeCache()

	rules, err := relevance.LoadRules(appCfg.RulesFile)
	if err != nil {
		slog.Error("Failed to load relevance rules", "path", appCfg.RulesFile, "error", err)
		os.Exit(1)
	}

	sourcesCfg, err := scrape.LoadConfig(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load sources", "path", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	ownSite, fallbacks := scrape.NewSources(sourcesCfg, scrape.Options{
		UserAgent: appCfg.UserAgent,
	})
	if appCfg.OwnSiteSlots == 0 {
		ownSite = nil
	}
	slog.Info("Sources loaded", "own_site", ownSite != nil, "fallbacks", len(fallbacks), "links", len(sourcesCfg.Links))

	deps := search.Deps{
		Cache:     resultCache,
		OwnSite:   ownSite,
		Index:     searcher,
		Fallbacks: fallbacks,
		Filter:    relevance.NewFilterer(rules),
	}
	if appCfg.PAAPIEnabled() {
		deps.Remote = paapi.NewClient(paapi.Config{
			AccessKey:   appCfg.PAAPIAccessKey,
			SecretKey:   appCfg.PAAPISecretKey,
			PartnerTag:  appCfg.PAAPIPartnerTag,
			Endpoint:    appCfg.PAAPIEndpoint,
			Region:      appCfg.PAAPIRegion,
			Marketplace: appCfg.PAAPIMarketplace,
		})
	} else {
		slog.Warn("PA-API credentials or partner tag not set, marketplace API source disabled")
	}

	searchService := search.NewService(search.Config{
		MaxResults:    appCfg.MaxResults,
		OwnSiteSlots:  appCfg.OwnSiteSlots,
		SourceTimeout: appCfg.SourceTimeout,
		PartnerTag:    appCfg.PAAPIPartnerTag,
		Links:         sourcesCfg.Links,
	}, deps)

	var (
		purger tasks.CachePurger
		sizer  api.CacheSizer
	)
	if resultCache != nil {
		purger = resultCache
		sizer = resultCache
	}
	scheduler := tasks.NewScheduler(tasks.Options{
		WorkerCount:    appCfg.WorkerCount,
		Interval:       appCfg.SchedulerInterval,
		FeedURL:        appCfg.FeedURL,
		ImportInterval: appCfg.ImportInterval,
	}, importer, searcher, purger)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(searchService, searcher, scheduler, sizer, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appCfg.SourceTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// newCache builds the result cache for the configured backend. A redis
// backend that cannot be reached falls back to SQLite.
func newCache(appCfg *cfg.Cfg, db *database.DB) (*cache.Cache, func()) {
	opts := cache.Options{
		TTLs: map[string]time.Duration{
			cache.CategoryOffers: appCfg.OffersTTL,
			cache.CategoryLinks:  appCfg.LinksTTL,
		},
		Normalize: true,
	}
	noop := func() {}

	switch appCfg.CacheBackend {
	case "none":
		slog.Info("Result cache disabled")
		return nil, noop
	case "redis":
		store, err := cache.NewRedisStore(appCfg.RedisAddr, appCfg.RedisPrefix)
		if err == nil {
			slog.Info("Using redis result cache", "addr", appCfg.RedisAddr)
			return cache.New(store, opts), func() { store.Close() }
		}
		slog.Warn("Redis unavailable, falling back to SQLite cache", "addr", appCfg.RedisAddr, "error", err)
	}

	return cache.New(cache.NewSQLiteStore(database.NewCacheRepository(db)), opts), noop
}
