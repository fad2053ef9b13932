package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
)

const apiVersion = "1.0.0"

func routes(books *book.Service, logger *slog.Logger, now func() time.Time) *http.ServeMux {
	bookHandler := book.NewHTTPHandler(books, logger)

	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"name":        "Library Book API",
			"version":     apiVersion,
			"description": "REST API for managing book records",
			"endpoints": map[string]string{
				"books":  "/books",
				"health": "/health",
			},
		})
	})
	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"timestamp": now().UTC().Format(time.RFC3339Nano),
			"message":   "Library API is running",
		})
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		n, err := books.Count(ctx)
		if err != nil {
			logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ready", "books": n})
	})

	router.HandleFunc("POST /books", bookHandler.Create)
	router.HandleFunc("GET /books", bookHandler.List)
	router.HandleFunc("GET /books/available", bookHandler.ListAvailable)
	router.HandleFunc("GET /books/{id}", bookHandler.Get)
	router.HandleFunc("PUT /books/{id}", bookHandler.Update)
	router.HandleFunc("PATCH /books/{id}", bookHandler.PartialUpdate)
	router.HandleFunc("DELETE /books/{id}", bookHandler.Delete)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusNotFound, map[string]string{
			"error":   httpx.CodeNotFound,
			"message": "Resource not found",
			"path":    r.URL.Path,
			"method":  r.Method,
		})
	})

	return router
}

// newHandler wraps the router with the middleware stack.
func newHandler(ctx context.Context, cfg config.Config, logger *slog.Logger, router http.Handler) http.Handler {
	mws := []httpx.Middleware{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.RecoveryMiddleware(logger),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		mws = append(mws, httpx.CORSMiddleware(cfg.CORSAllowedOrigins))
	}
	if cfg.RateLimitRPS > 0 {
		rl := httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
		mws = append(mws, rl.Middleware)
	}
	if cfg.MaxBodyBytes > 0 {
		mws = append(mws, httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))
	}
	return httpx.Chain(router, mws...)
}
