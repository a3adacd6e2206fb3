package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climacast/climacast/internal/analysis"
	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/worker"
)

type mockClimateProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockClimateProvider) GetClimatology(_ context.Context, lat, lon float64) (*climate.Climatology, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamMaxTemperature, time.July, 25.0)
	return &climate.Climatology{Lat: lat, Lon: lon, Monthly: monthly, Source: "mock"}, nil
}

func (m *mockClimateProvider) Name() string { return "mock" }

func (m *mockClimateProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newClimateService(provider *mockClimateProvider) *climate.Service {
	return climate.NewService(climate.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})
}

func TestRefreshJob_WarmsAllTargets(t *testing.T) {
	provider := &mockClimateProvider{}

	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name: "test",
				Points: []worker.Point{
					{Lat: 40.7128, Lon: -74.0060},
					{Lat: 51.5074, Lon: -0.1278},
					{Lat: 35.6762, Lon: 139.6503},
				},
			},
		},
		Concurrency:        2,
		Timeout:            5 * time.Second,
		RefreshClimatology: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         zerolog.Nop(),
		ClimateService: newClimateService(provider),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 3, result.TotalPoints)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, provider.callCount())
	assert.Empty(t, result.Errors)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.Equal(t, int64(3), metrics.ClimatologyRefresh)
}

func TestRefreshJob_CountsFailures(t *testing.T) {
	provider := &mockClimateProvider{err: errors.New("upstream down")}

	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{Name: "test", Points: []worker.Point{{Lat: 40.0, Lon: -74.0}, {Lat: 51.0, Lon: 0.0}}},
		},
		Concurrency:        1,
		Timeout:            5 * time.Second,
		RefreshClimatology: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         zerolog.Nop(),
		ClimateService: newClimateService(provider),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "climatology", result.Errors[0].Provider)
	assert.Contains(t, result.Errors[0].Error, "upstream down")
}

func TestRefreshJob_IncludesRecentLocations(t *testing.T) {
	provider := &mockClimateProvider{}

	repo := analysis.NewInMemoryRepository()
	require.NoError(t, repo.Create(context.Background(), &analysis.Run{
		ID:        "run-1",
		Location:  analysis.Location{Latitude: -33.8688, Longitude: 151.2093, DisplayName: "Sydney"},
		CreatedAt: time.Now(),
	}))

	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{Name: "test", Points: []worker.Point{{Lat: 40.0, Lon: -74.0}}},
		},
		Concurrency:         1,
		Timeout:             5 * time.Second,
		RefreshClimatology:  true,
		RecentLocationLimit: 10,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         zerolog.Nop(),
		ClimateService: newClimateService(provider),
		RunRepository:  repo,
	})

	result := job.Run(context.Background())

	// One fixed target plus the recently analyzed location.
	assert.Equal(t, 2, result.TotalPoints)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 2, provider.callCount())
}

func TestRefreshJob_EmptyConfigUsesDefaults(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger: zerolog.Nop(),
	})

	// Defaults kick in when no targets are configured; with no services wired
	// the run is a no-op but still walks every point.
	result := job.Run(context.Background())
	assert.Equal(t, worker.DefaultRefreshConfig().TotalPoints(), result.TotalPoints)
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.RefreshClimatology)
	assert.True(t, cfg.RefreshWeather)
	assert.Equal(t, 20, cfg.RecentLocationLimit)
	assert.Equal(t, len(cfg.AllPoints()), cfg.TotalPoints())
	assert.Greater(t, cfg.TotalPoints(), 10)
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	provider := &mockClimateProvider{}

	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{Name: "test", Points: []worker.Point{{Lat: 40.0, Lon: -74.0}}},
		},
		Concurrency:        1,
		Timeout:            5 * time.Second,
		RefreshClimatology: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         zerolog.Nop(),
		ClimateService: newClimateService(provider),
	})

	job.Run(context.Background())

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snapshot["total_refreshes"])
	assert.Equal(t, int64(1), snapshot["climatology_refreshes"])
}
