package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/custody"
	"bookshelf/internal/httpx"
	"bookshelf/internal/library"
	"bookshelf/internal/platform/postgres"
)

const maxRequestBytes = 1 << 20

// deps is everything the router needs from storage and the outside world.
type deps struct {
	cfg      config.Config
	logger   *slog.Logger
	books    catalog.Repository
	entries  library.Repository
	records  custody.Repository
	volumes  catalog.VolumeSource
	backfill catalog.BackfillSource
	// pinger is nil when nothing external has to be up for /readyz.
	pinger postgres.Pinger
}

func newRouter(ctx context.Context, d deps) http.Handler {
	catalogOpts := []catalog.Option{catalog.WithLogger(d.logger)}
	if d.backfill != nil {
		catalogOpts = append(catalogOpts, catalog.WithBackfill(d.backfill))
	}
	catalogService := catalog.NewService(d.books, d.volumes, catalogOpts...)
	custodyService := custody.NewService(d.records, catalogService, custody.WithLogger(d.logger))
	libraryService := library.NewService(d.entries, catalogService, d.records, custodyService, library.WithLogger(d.logger))

	catalogHandler := catalog.NewHTTPHandler(catalogService)
	libraryHandler := library.NewHTTPHandler(libraryService)
	custodyHandler := custody.NewHTTPHandler(custodyService)

	auth := httpx.AuthMiddleware(d.cfg.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONSuccess(w, r, map[string]string{"status": "ok"}, nil)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.pinger != nil {
			pingCtx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := d.pinger.Ping(pingCtx); err != nil {
				httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
				return
			}
		}
		httpx.JSONSuccess(w, r, map[string]string{"status": "ready"}, nil)
	})

	mux.HandleFunc("GET /v1/catalog/search", catalogHandler.Search)
	mux.HandleFunc("GET /v1/catalog/books/{book}", catalogHandler.GetBook)

	mux.Handle("POST /v1/library", protected(libraryHandler.Add))
	mux.Handle("GET /v1/library", protected(libraryHandler.List))
	mux.Handle("GET /v1/library/stats", protected(libraryHandler.Stats))
	mux.Handle("GET /v1/library/random", protected(libraryHandler.Random))
	mux.Handle("GET /v1/library/{book}", protected(libraryHandler.Get))
	mux.Handle("DELETE /v1/library/{book}", protected(libraryHandler.Remove))
	mux.Handle("GET /v1/library/{book}/check", protected(libraryHandler.Check))
	mux.Handle("PUT /v1/library/{book}/status", protected(libraryHandler.SetStatus))
	mux.Handle("PUT /v1/library/{book}/progress", protected(libraryHandler.SetProgress))
	mux.Handle("PUT /v1/library/{book}/rating", protected(libraryHandler.SetRating))
	mux.Handle("PUT /v1/library/{book}/review", protected(libraryHandler.SetReview))
	mux.Handle("DELETE /v1/library/{book}/review", protected(libraryHandler.ClearReview))
	mux.Handle("GET /v1/entries/{id}", protected(libraryHandler.GetByID))

	mux.Handle("GET /v1/library/{book}/custody", protected(custodyHandler.Get))
	mux.Handle("POST /v1/library/{book}/custody/lend", protected(custodyHandler.Lend))
	mux.Handle("POST /v1/library/{book}/custody/lend/return", protected(custodyHandler.ReturnLent))
	mux.Handle("POST /v1/library/{book}/custody/borrow", protected(custodyHandler.Borrow))
	mux.Handle("POST /v1/library/{book}/custody/borrow/return", protected(custodyHandler.ReturnBorrowed))
	mux.Handle("PUT /v1/library/{book}/custody/due-date", protected(custodyHandler.UpdateDueDate))
	mux.Handle("PUT /v1/library/{book}/custody/start-date", protected(custodyHandler.UpdateStartDate))
	mux.Handle("DELETE /v1/library/{book}/custody/history", protected(custodyHandler.ClearHistory))
	mux.Handle("POST /v1/library/{book}/custody/sell", protected(custodyHandler.Sell))
	mux.Handle("POST /v1/library/{book}/custody/buy", protected(custodyHandler.Buy))
	mux.Handle("GET /v1/custody/overdue", protected(custodyHandler.Overdue))

	rateLimiter := httpx.NewRateLimitMiddleware(ctx, d.cfg.RateLimitRPS, d.cfg.RateLimitBurst)

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.logger),
		httpx.RecoveryMiddleware(d.logger),
		httpx.SecurityHeadersMiddleware(false),
		httpx.CORSMiddleware(d.cfg.CORSOrigins),
		httpx.RequestSizeLimitMiddleware(maxRequestBytes),
		rateLimiter.Middleware,
	)
}
