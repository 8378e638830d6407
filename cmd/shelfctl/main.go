// Command shelfctl is an operator tool for a bookshelf deployment: it mints
// API tokens and inspects libraries straight from the database.
package main

import (
	"context"
	"fmt"
	"os"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/custody"
	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/platform/postgres"
)

func main() {
	if err := newRootCmd(connectPostgres).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type services struct {
	catalog *catalog.Service
	library *library.Service
	custody *custody.Service
}

// connector builds the services for a command. The returned func releases
// whatever it opened.
type connector func(ctx context.Context, cfg config.Config) (*services, func(), error)

func connectPostgres(ctx context.Context, cfg config.Config) (*services, func(), error) {
	pool, err := postgres.Open(ctx, cfg.DatabaseDSN, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", config.RedactDSN(cfg.DatabaseDSN), err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	volumes := googlebooks.NewClient(cfg.GoogleBooksAPIKey, cfg.UserAgent, cfg.GoogleBooksRPS, 3)
	opts := []catalog.Option{catalog.WithLogger(logger)}
	if cfg.OpenLibraryEnabled {
		opts = append(opts, catalog.WithBackfill(openlibrary.NewClient(cfg.UserAgent, 1, 2)))
	}

	records := custody.NewPostgresRepo(pool, cfg.DBTimeout)
	return wire(
		catalog.NewPostgresRepo(pool, cfg.DBTimeout),
		library.NewPostgresRepo(pool, cfg.DBTimeout),
		records,
		volumes,
		opts...,
	), pool.Close, nil
}

func wire(books catalog.Repository, entries library.Repository, records custody.Repository, volumes catalog.VolumeSource, opts ...catalog.Option) *services {
	cat := catalog.NewService(books, volumes, opts...)
	cust := custody.NewService(records, cat)
	return &services{
		catalog: cat,
		library: library.NewService(entries, cat, records, cust),
		custody: cust,
	}
}
