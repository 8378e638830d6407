package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/custody"
	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/platform/postgres"
	"bookshelf/internal/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := deps{
		cfg:     cfg,
		logger:  logger,
		volumes: googlebooks.NewClient(cfg.GoogleBooksAPIKey, cfg.UserAgent, cfg.GoogleBooksRPS, 3),
	}
	if cfg.OpenLibraryEnabled {
		d.backfill = openlibrary.NewClient(cfg.UserAgent, 1, 2)
	}

	switch cfg.Storage {
	case "memory":
		store := memory.New()
		d.books, d.entries, d.records = store.Catalog(), store.Library(), store.Custody()
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		pool, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DBMaxConns)
		if err != nil {
			logger.Error("cannot open database", "dsn", config.RedactDSN(cfg.DatabaseDSN), "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("database connection OK", "dsn", config.RedactDSN(cfg.DatabaseDSN))

		d.books = catalog.NewPostgresRepo(pool, cfg.DBTimeout)
		d.entries = library.NewPostgresRepo(pool, cfg.DBTimeout)
		d.records = custody.NewPostgresRepo(pool, cfg.DBTimeout)
		d.pinger = pool
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newRouter(ctx, d),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "addr", cfg.Addr, "storage", cfg.Storage)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
