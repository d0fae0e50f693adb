package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/cask/internal/telemetry"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/metrics"
	"github.com/marmos91/cask/pkg/server/handlers"
	"github.com/marmos91/cask/pkg/server/middleware"
	"github.com/marmos91/cask/pkg/store"
)

// RouterConfig holds what the routes need.
type RouterConfig struct {
	Store store.Store
	Blobs blob.Store

	// Metrics may be nil, in which case no metrics route is mounted.
	Metrics     *metrics.Metrics
	MetricsPath string

	MaxUploadSize int64
}

// NewRouter creates the chi router with all middleware and routes.
//
// Middleware order: request id, real client IP, tracing span, request
// logging, metrics, panic recovery. No request timeout is applied so large
// uploads and downloads are not cut off.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(telemetry.HTTPMiddleware)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.Blobs)
	artifactHandler := handlers.NewArtifactHandler(cfg.Store, cfg.Blobs, cfg.Metrics, cfg.MaxUploadSize)
	metadataHandler := handlers.NewMetadataHandler(cfg.Store)
	statsHandler := handlers.NewStatsHandler(cfg.Store)
	tokenHandler := handlers.NewTokenHandler(cfg.Store)

	requireToken := middleware.RequireToken(cfg.Store)
	requireAdmin := middleware.RequireAdmin(cfg.Store)

	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/artifacts", func(r chi.Router) {
			r.Get("/", artifactHandler.List)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", artifactHandler.ListVersions)
				r.Get("/stats", statsHandler.Artifact)

				r.Route("/{version}", func(r chi.Router) {
					r.Get("/", artifactHandler.Download)
					r.With(requireToken).Put("/", artifactHandler.Upload)
					r.With(requireToken).Delete("/", artifactHandler.Delete)

					r.Get("/stats", statsHandler.Version)

					r.Get("/meta", metadataHandler.Get)
					r.With(requireToken).Put("/meta", metadataHandler.Put)
					r.With(requireToken).Delete("/meta/{key}", metadataHandler.DeleteKey)
				})
			})
		})

		r.Route("/tokens", func(r chi.Router) {
			r.With(middleware.AdminOrBootstrap(cfg.Store)).Post("/", tokenHandler.Create)
			r.With(requireAdmin).Get("/", tokenHandler.List)
			r.With(requireAdmin).Delete("/{id}", tokenHandler.Revoke)
		})
	})

	return r
}
