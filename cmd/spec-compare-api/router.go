package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/spherical/libs/spec-compare/cmd/spec-compare-api/handlers"
	"github.com/spherical-ai/spherical/libs/spec-compare/cmd/spec-compare-api/middleware"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
)

// RouterDeps holds the services the routes are served from.
type RouterDeps struct {
	Store          handlers.DocumentStore
	Builder        handlers.DocumentBuilder
	Comparator     *comparison.Comparator
	Metrics        *observability.Metrics
	Ready          func(ctx context.Context) error
	RequestTimeout time.Duration
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	if deps.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"spec-compare"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	documentHandler := handlers.NewDocumentHandler(logger, deps.Store, deps.Builder)
	compareHandler := handlers.NewCompareHandler(logger, deps.Store, deps.Comparator)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentHandler.Extract)
			r.Get("/", documentHandler.List)
			r.Route("/{model}", func(r chi.Router) {
				r.Get("/", documentHandler.Get)
				r.Delete("/", documentHandler.Delete)
				r.Get("/specification", documentHandler.Specification)
			})
		})
		r.Post("/compare", compareHandler.Compare)
	})

	return r
}
