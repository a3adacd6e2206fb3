package geocode

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for geocoding providers.
type Provider interface {
	// Forward resolves a free-form address query to coordinates.
	Forward(ctx context.Context, query string) (*Location, error)

	// Reverse resolves coordinates to the nearest formatted address.
	Reverse(ctx context.Context, lat, lon float64) (*Location, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider is the geocoding provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache geocoding results (default: 24 hours).
	// Place names don't move.
	CacheTTL time.Duration
}

// Service provides forward and reverse geocoding with caching.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedLocation
}

type cachedLocation struct {
	location  *Location
	expiresAt time.Time
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		cache:    make(map[string]*cachedLocation),
	}
}

// Forward resolves an address query to a location.
func (s *Service) Forward(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	cacheKey := "fwd:" + strings.ToLower(query)
	if loc := s.cached(cacheKey); loc != nil {
		return loc, nil
	}

	loc, err := s.provider.Forward(ctx, query)
	if err != nil {
		return nil, err
	}

	s.store(cacheKey, loc)
	return loc, nil
}

// Reverse resolves coordinates to a display label. It never fails on provider
// errors: when the address cannot be resolved it falls back to a coordinate
// label so callers always get something presentable.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) (*Location, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidCoordinates
	}

	cacheKey := fmt.Sprintf("rev:%.4f:%.4f", roundCoord(lat), roundCoord(lon))
	if loc := s.cached(cacheKey); loc != nil {
		return loc, nil
	}

	loc, err := s.provider.Reverse(ctx, lat, lon)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("reverse geocoding failed, using coordinate label")

		return &Location{
			FormattedAddress: fmt.Sprintf("Lat: %.4f, Lon: %.4f", lat, lon),
			Lat:              lat,
			Lon:              lon,
			Approximate:      true,
		}, nil
	}

	s.store(cacheKey, loc)
	return loc, nil
}

func (s *Service) cached(key string) *Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cache[key]; ok && time.Now().Before(c.expiresAt) {
		return c.location
	}
	return nil
}

func (s *Service) store(key string, loc *Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = &cachedLocation{
		location:  loc,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
}

func roundCoord(v float64) float64 {
	return math.Round(v*10000) / 10000
}
