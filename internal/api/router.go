// Package api provides the HTTP API for ClimaCast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/climacast/climacast/internal/analysis"
	"github.com/climacast/climacast/internal/api/handler"
	"github.com/climacast/climacast/internal/api/middleware"
	"github.com/climacast/climacast/internal/featureflags"
	"github.com/climacast/climacast/internal/geocode"
	"github.com/climacast/climacast/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	AnalysisService    *analysis.Service
	GeocodeService     *geocode.Service
	FeatureFlagService *featureflags.Service
	SourceRegistry     *resilience.Registry

	// Pool is optional; readiness reports degraded storage when nil.
	Pool *pgxpool.Pool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "climacast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type
	r.Use(middleware.Identity)             // Anonymous caller identity

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.SourceRegistry, cfg.Pool, cfg.FeatureFlagService)
	analysisHandler := handler.NewAnalysisHandler(cfg.AnalysisService)
	geocodeHandler := handler.NewGeocodeHandler(cfg.GeocodeService)
	metadataHandler := handler.NewMetadataHandler()
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create rate limit middleware for different endpoint categories
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)         // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/hazards", metadataHandler.ListHazards)
			r.Get("/enums", metadataHandler.GetEnums)
		})

		// Geocoding - fans out to the upstream provider, strict rate limiting
		r.Route("/geocode", func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Get("/", geocodeHandler.Forward)
			r.Get("/reverse", geocodeHandler.Reverse)
		})

		// Analyses - the run endpoint hits every upstream provider
		r.With(expensiveRateLimit).Post("/analyses:run", analysisHandler.RunAnalysis)
		r.Route("/analyses", func(r chi.Router) {
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per caller
			r.Get("/", analysisHandler.ListAnalyses)
			r.Route("/{analysisId}", func(r chi.Router) {
				r.Get("/", analysisHandler.GetAnalysis)
				r.Get("/export", analysisHandler.ExportAnalysis)
			})
		})

		// Admin endpoints - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminRateLimit)

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
