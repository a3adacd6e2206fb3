package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climacast/climacast/internal/analysis"
	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/geocode"
	"github.com/climacast/climacast/internal/hazard"
	"github.com/climacast/climacast/internal/weather"
)

type fakeClimate struct {
	mu      sync.Mutex
	calls   int
	err     error
	monthly climate.Monthly
	cached  *climate.Climatology
	block   chan struct{} // when set, GetClimatology waits until closed
}

func (f *fakeClimate) GetClimatology(_ context.Context, lat, lon float64) (*climate.Climatology, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	monthly := f.monthly
	if monthly == nil {
		monthly = make(climate.Monthly)
	}
	return &climate.Climatology{Lat: lat, Lon: lon, Monthly: monthly, Source: "nasa-power"}, nil
}

func (f *fakeClimate) GetCachedClimatology(float64, float64) (*climate.Climatology, bool) {
	if f.cached == nil {
		return nil, false
	}
	return f.cached, true
}

type fakeWeather struct {
	mu          sync.Mutex
	liveCalls   int
	fcCalls     int
	liveErr     error
	forecastErr error
	live        *weather.Observation
	forecast    *weather.Forecast
}

func (f *fakeWeather) GetCurrentWeather(context.Context, float64, float64) (*weather.Observation, error) {
	f.mu.Lock()
	f.liveCalls++
	f.mu.Unlock()
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return f.live, nil
}

func (f *fakeWeather) GetForecast(context.Context, float64, float64) (*weather.Forecast, error) {
	f.mu.Lock()
	f.fcCalls++
	f.mu.Unlock()
	if f.forecastErr != nil {
		return nil, f.forecastErr
	}
	return f.forecast, nil
}

type fakeGeocode struct {
	forwardErr error
}

func (f *fakeGeocode) Forward(_ context.Context, query string) (*geocode.Location, error) {
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	return &geocode.Location{FormattedAddress: query + " (resolved)", Lat: 48.85, Lon: 2.35}, nil
}

func (f *fakeGeocode) Reverse(_ context.Context, lat, lon float64) (*geocode.Location, error) {
	return &geocode.Location{
		FormattedAddress: fmt.Sprintf("Lat: %.4f, Lon: %.4f", lat, lon),
		Lat:              lat,
		Lon:              lon,
		Approximate:      true,
	}, nil
}

type fakeFlags struct {
	liveDisabled       bool
	forecastDisabled   bool
	cachedOnly         bool
	runHistoryDisabled bool
}

func (f *fakeFlags) IsLiveWeatherDisabled(context.Context) bool  { return f.liveDisabled }
func (f *fakeFlags) IsForecastDisabled(context.Context) bool     { return f.forecastDisabled }
func (f *fakeFlags) IsCachedOnlyClimatology(context.Context) bool { return f.cachedOnly }
func (f *fakeFlags) IsRunHistoryDisabled(context.Context) bool   { return f.runHistoryDisabled }

func julyClimatology() climate.Monthly {
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamMaxTemperature, time.July, 35.0)
	monthly.Set(climate.ParamMinTemperature, time.July, 18.0)
	monthly.Set(climate.ParamPrecipitation, time.July, 4.0)
	monthly.Set(climate.ParamWindSpeed, time.July, 3.0)
	monthly.Set(climate.ParamHumidity, time.July, 55.0)
	return monthly
}

func liveObservation() *weather.Observation {
	return &weather.Observation{
		TemperatureC:          30.0,
		HumidityPercent:       60.0,
		WindSpeedMS:           4.0,
		Condition:             weather.ConditionClear,
		ConditionsSummary:     "clear sky",
		TimezoneOffsetSeconds: 7200,
	}
}

func newService(t *testing.T, clim *fakeClimate, wx *fakeWeather, flags *fakeFlags) (*analysis.Service, *analysis.InMemoryRepository) {
	t.Helper()
	repo := analysis.NewInMemoryRepository()
	svc := analysis.NewService(analysis.ServiceConfig{
		Climate:    clim,
		Weather:    wx,
		Geocode:    &fakeGeocode{},
		Flags:      flags,
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
	return svc, repo
}

func coordinateRequest() analysis.RunRequest {
	return analysis.RunRequest{
		Latitude:       48.85,
		Longitude:      2.35,
		HasCoordinates: true,
		TargetDate:     time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC),
		UserID:         "user-1",
	}
}

func TestService_Run(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	wx := &fakeWeather{live: liveObservation()}
	svc, repo := newService(t, clim, wx, &fakeFlags{})

	run, err := svc.Run(context.Background(), coordinateRequest())
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "user-1", run.UserID)
	assert.Equal(t, "nasa-power", run.ClimatologySource)
	assert.Contains(t, run.Location.DisplayName, "Lat: 48.85")
	require.Len(t, run.Likelihoods, 5)

	// T2M_MAX 35.0 vs threshold 32.0: high likelihood, score 80.
	hot := run.Likelihoods[0]
	assert.Equal(t, hazard.NameVeryHot, hot.Hazard)
	assert.Equal(t, 80, hot.Score)
	assert.Equal(t, hazard.StatusHighLikelihood, hot.Status)

	require.NotNil(t, run.LiveWeather)
	assert.Equal(t, 30.0, run.LiveWeather.TemperatureC)
	assert.NotEmpty(t, run.Recommendations)
	assert.Contains(t, run.Summary, "Caution is advised")

	// Persisted.
	stored, err := repo.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, stored.ID)
}

func TestService_Run_QueryLocation(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	svc, _ := newService(t, clim, &fakeWeather{}, &fakeFlags{})

	req := analysis.RunRequest{
		Query:      "Paris",
		TargetDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}

	run, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Paris (resolved)", run.Location.DisplayName)
	assert.Equal(t, 48.85, run.Location.Latitude)
}

func TestService_Run_InvalidInputBeforeNetwork(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	svc, _ := newService(t, clim, &fakeWeather{}, &fakeFlags{})

	cases := []struct {
		name string
		req  analysis.RunRequest
		want error
	}{
		{
			name: "no location",
			req:  analysis.RunRequest{TargetDate: time.Now()},
			want: analysis.ErrNoLocation,
		},
		{
			name: "bad latitude",
			req: analysis.RunRequest{
				Latitude: 95, Longitude: 0, HasCoordinates: true, TargetDate: time.Now(),
			},
			want: analysis.ErrInvalidCoordinates,
		},
		{
			name: "missing date",
			req: analysis.RunRequest{
				Latitude: 1, Longitude: 1, HasCoordinates: true,
			},
			want: analysis.ErrInvalidDate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, 0, clim.calls, "validation failures must not reach the network")
}

func TestService_Run_ClimatologyFailureAborts(t *testing.T) {
	clim := &fakeClimate{err: errors.New("power endpoint down")}
	svc, _ := newService(t, clim, &fakeWeather{}, &fakeFlags{})

	_, err := svc.Run(context.Background(), coordinateRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrClimatologyUnavailable)
	assert.Contains(t, err.Error(), "power endpoint down")
}

func TestService_Run_DegradesWithoutLiveWeather(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	wx := &fakeWeather{
		liveErr:     weather.ErrCredentialMissing,
		forecastErr: weather.ErrCredentialMissing,
	}
	svc, _ := newService(t, clim, wx, &fakeFlags{})

	run, err := svc.Run(context.Background(), coordinateRequest())
	require.NoError(t, err)

	assert.Nil(t, run.LiveWeather)
	assert.Nil(t, run.Forecast)
	assert.NotEmpty(t, run.Likelihoods)
	assert.NotEmpty(t, run.Recommendations)
	assert.NotContains(t, run.Summary, "Current conditions")
}

func TestService_Run_RejectsConcurrentRuns(t *testing.T) {
	block := make(chan struct{})
	clim := &fakeClimate{monthly: julyClimatology(), block: block}
	svc, _ := newService(t, clim, &fakeWeather{}, &fakeFlags{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), coordinateRequest())
		done <- err
	}()

	// Wait until the first run holds the slot.
	require.Eventually(t, func() bool {
		clim.mu.Lock()
		defer clim.mu.Unlock()
		return clim.calls == 1
	}, time.Second, time.Millisecond)

	_, err := svc.Run(context.Background(), coordinateRequest())
	assert.ErrorIs(t, err, analysis.ErrRunInProgress)

	close(block)
	require.NoError(t, <-done)

	// Slot released: a new run goes through.
	clim.block = nil
	_, err = svc.Run(context.Background(), coordinateRequest())
	assert.NoError(t, err)
}

func TestService_Run_GuardReleasedOnFailure(t *testing.T) {
	clim := &fakeClimate{err: errors.New("down")}
	svc, _ := newService(t, clim, &fakeWeather{}, &fakeFlags{})

	_, err := svc.Run(context.Background(), coordinateRequest())
	require.Error(t, err)

	// The failed run must not leave the guard held.
	_, err = svc.Run(context.Background(), coordinateRequest())
	assert.NotErrorIs(t, err, analysis.ErrRunInProgress)
}

func TestService_Run_FlagsDisableOptionalFetches(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	wx := &fakeWeather{live: liveObservation()}
	svc, _ := newService(t, clim, wx, &fakeFlags{liveDisabled: true, forecastDisabled: true})

	run, err := svc.Run(context.Background(), coordinateRequest())
	require.NoError(t, err)

	assert.Nil(t, run.LiveWeather)
	assert.Equal(t, 0, wx.liveCalls)
	assert.Equal(t, 0, wx.fcCalls)
}

func TestService_Run_CachedOnlyClimatology(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	svc, _ := newService(t, clim, &fakeWeather{}, &fakeFlags{cachedOnly: true})

	// Cache miss fails the run without a provider call.
	_, err := svc.Run(context.Background(), coordinateRequest())
	require.ErrorIs(t, err, analysis.ErrClimatologyUnavailable)
	assert.Equal(t, 0, clim.calls)

	// With a cached entry the run proceeds.
	clim.cached = &climate.Climatology{Monthly: julyClimatology(), Source: "nasa-power"}
	run, err := svc.Run(context.Background(), coordinateRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, clim.calls)
	assert.NotEmpty(t, run.Likelihoods)
}

func TestService_Run_HistoryDisabled(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	svc, repo := newService(t, clim, &fakeWeather{}, &fakeFlags{runHistoryDisabled: true})

	run, err := svc.Run(context.Background(), coordinateRequest())
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), run.ID)
	assert.ErrorIs(t, err, analysis.ErrRunNotFound)
}

func TestService_Run_ForecastPointLimit(t *testing.T) {
	points := make([]weather.ForecastPoint, 40)
	for i := range points {
		points[i] = weather.ForecastPoint{TemperatureC: float64(i)}
	}

	clim := &fakeClimate{monthly: julyClimatology()}
	wx := &fakeWeather{forecast: &weather.Forecast{Points: points}}
	svc, _ := newService(t, clim, wx, &fakeFlags{})

	run, err := svc.Run(context.Background(), coordinateRequest())
	require.NoError(t, err)
	assert.Len(t, run.Forecast, 8)
}

func TestService_Export(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	svc, _ := newService(t, clim, &fakeWeather{live: liveObservation()}, &fakeFlags{})

	run, err := svc.Run(context.Background(), coordinateRequest())
	require.NoError(t, err)

	filename, document, err := svc.Export(context.Background(), run.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filename, "weather_analysis_"))
	assert.True(t, strings.HasSuffix(filename, ".json"))

	var decoded analysis.Run
	require.NoError(t, json.Unmarshal(document, &decoded))
	assert.Equal(t, run.ID, decoded.ID)
	assert.Len(t, decoded.Likelihoods, 5)
	assert.Equal(t, run.Summary, decoded.Summary)

	// Climatology keys survive the round trip as month numbers.
	july, ok := decoded.Climatology.Value(climate.ParamMaxTemperature, time.July)
	require.True(t, ok)
	assert.Equal(t, 35.0, july)
}

func TestService_Export_NotFound(t *testing.T) {
	svc, _ := newService(t, &fakeClimate{}, &fakeWeather{}, &fakeFlags{})

	_, _, err := svc.Export(context.Background(), "missing")
	assert.ErrorIs(t, err, analysis.ErrRunNotFound)
}

func TestService_List(t *testing.T) {
	clim := &fakeClimate{monthly: julyClimatology()}
	svc, _ := newService(t, clim, &fakeWeather{}, &fakeFlags{})

	for i := 0; i < 3; i++ {
		_, err := svc.Run(context.Background(), coordinateRequest())
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), "user-1", analysis.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)

	result, err = svc.List(context.Background(), "someone-else", analysis.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}
