package climate

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for climatology data providers.
type Provider interface {
	// GetClimatology fetches long-term monthly averages for a location.
	GetClimatology(ctx context.Context, lat, lon float64) (*Climatology, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the climatology service.
type ServiceConfig struct {
	// Provider is the climatology data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache climatology data (default: 24 hours).
	// Long-term averages barely move, so an aggressive cache is safe.
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 7 days).
	StaleIfErrorTTL time.Duration
}

// Service provides climatology data with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu              sync.RWMutex
	cache           map[string]*cachedClimatology
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedClimatology struct {
	climatology *Climatology
	fetchedAt   time.Time
	expiresAt   time.Time
}

// NewService creates a new climatology service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.1 // ~11km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 7 * 24 * time.Hour
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedClimatology),
		cleanupInterval: time.Hour,
	}
}

// GetClimatology returns long-term monthly averages for a location.
// Uses cached data if available and not expired.
func (s *Service) GetClimatology(ctx context.Context, lat, lon float64) (*Climatology, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(lat, lon)

	// Check cache
	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.climatology, nil
	}
	s.mu.RUnlock()

	// Fetch from provider
	return s.fetch(ctx, lat, lon, cacheKey)
}

// GetCachedClimatology returns cached data for a location without contacting
// the provider. The second return is false on a cache miss. Stale entries are
// still returned; cached-only mode prefers old data over none.
func (s *Service) GetCachedClimatology(lat, lon float64) (*Climatology, bool) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if cached, ok := s.cache[s.cacheKey(lat, lon)]; ok {
		return cached.climatology, true
	}
	return nil, false
}

// Warm fetches climatology for a location into the cache, ignoring freshness.
// Used by the background refresh worker.
func (s *Service) Warm(ctx context.Context, lat, lon float64) error {
	if err := validateCoordinates(lat, lon); err != nil {
		return err
	}
	_, err := s.fetch(ctx, lat, lon, s.cacheKey(lat, lon))
	return err
}

// fetch fetches climatology from the provider and updates the cache.
func (s *Service) fetch(ctx context.Context, lat, lon float64, cacheKey string) (*Climatology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.climatology, nil
	}

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("provider", s.provider.Name()).
		Msg("fetching climatology from provider")

	clim, err := s.provider.GetClimatology(ctx, lat, lon)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("failed to fetch climatology")

		// Check for stale data
		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Msg("serving stale climatology due to provider error")
				return cached.climatology, nil
			}
		}

		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err.Error())
	}

	// Update cache
	now := time.Now()
	s.cache[cacheKey] = &cachedClimatology{
		climatology: clim,
		fetchedAt:   now,
		expiresAt:   now.Add(s.cacheTTL),
	}

	// Periodic cleanup
	s.cleanupIfNeeded()

	return clim, nil
}

// cacheKey generates a cache key for a location.
// Groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// cleanupIfNeeded removes expired entries if cleanup interval has passed.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired climatology cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedClimatology)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Provider:     s.provider.Name(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Provider     string
}

// validateCoordinates checks if coordinates are valid.
func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
