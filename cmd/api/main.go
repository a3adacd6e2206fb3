// Package main provides the entrypoint for the ClimaCast API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/climacast/climacast/internal/analysis"
	"github.com/climacast/climacast/internal/api"
	"github.com/climacast/climacast/internal/api/middleware"
	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/climate/nasapower"
	"github.com/climacast/climacast/internal/database"
	"github.com/climacast/climacast/internal/featureflags"
	"github.com/climacast/climacast/internal/geocode"
	"github.com/climacast/climacast/internal/geocode/googlegeo"
	"github.com/climacast/climacast/internal/provider/resilience"
	"github.com/climacast/climacast/internal/telemetry"
	"github.com/climacast/climacast/internal/weather"
	"github.com/climacast/climacast/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "climacast-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting ClimaCast API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database. DB_HOST unset means in-memory storage: runs are
	// lost on restart but everything still works.
	var pool *pgxpool.Pool
	if os.Getenv("DB_HOST") != "" {
		dbConfig := database.ConfigFromEnv()
		pool, err = database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		log.Warn().Msg("DB_HOST not set, using in-memory storage")
	}

	// Initialize provider clients behind circuit breakers and register them
	// for the ops status endpoint.
	registry := resilience.NewRegistry()

	nasaClient := resilience.NewClient(resilience.DefaultClientConfig(nasapower.ProviderName))
	registry.Register(nasapower.ProviderName, nasaClient)

	owmClient := resilience.NewClient(resilience.DefaultClientConfig(openweathermap.ProviderName))
	registry.Register(openweathermap.ProviderName, owmClient)

	geoClient := resilience.NewClient(resilience.DefaultClientConfig(googlegeo.ProviderName))
	registry.Register(googlegeo.ProviderName, geoClient)

	// Initialize domain services
	climateService := climate.NewService(climate.ServiceConfig{
		Provider: nasapower.NewClient(nasapower.ClientConfig{
			HTTPClient: nasaClient,
			Logger:     log,
		}),
		Logger: log,
	})
	log.Info().Msg("climatology service initialized")

	weatherAPIKey := os.Getenv("OPENWEATHERMAP_API_KEY")
	if weatherAPIKey == "" {
		log.Warn().Msg("OPENWEATHERMAP_API_KEY not set, runs will omit live weather")
	}
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     weatherAPIKey,
			HTTPClient: owmClient,
			Logger:     log,
		}),
		Logger: log,
	})
	log.Info().Msg("weather service initialized")

	geocodeAPIKey := os.Getenv("GOOGLE_GEOCODING_API_KEY")
	if geocodeAPIKey == "" {
		log.Warn().Msg("GOOGLE_GEOCODING_API_KEY not set, place queries will fail")
	}
	geocodeService := geocode.NewService(geocode.ServiceConfig{
		Provider: googlegeo.NewClient(googlegeo.ClientConfig{
			APIKey:     geocodeAPIKey,
			HTTPClient: geoClient,
			Logger:     log,
		}),
		Logger: log,
	})
	log.Info().Msg("geocoding service initialized")

	// Initialize feature flags repository and service
	var ffRepo featureflags.Repository
	if pool != nil {
		ffRepo = featureflags.NewPostgresRepository(pool)
	} else {
		ffRepo = featureflags.NewInMemoryRepository()
	}
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize the analysis run repository and service
	var runRepo analysis.Repository
	if pool != nil {
		runRepo = analysis.NewPostgresRepository(pool)
	} else {
		runRepo = analysis.NewInMemoryRepository()
	}
	analysisService := analysis.NewService(analysis.ServiceConfig{
		Climate:    climateService,
		Weather:    weatherService,
		Geocode:    geocodeService,
		Flags:      ffService,
		Repository: runRepo,
		Logger:     log,
	})
	log.Info().Msg("analysis service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		AnalysisService:    analysisService,
		GeocodeService:     geocodeService,
		FeatureFlagService: ffService,
		SourceRegistry:     registry,
		Pool:               pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
