package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/geocode"
	"github.com/climacast/climacast/internal/hazard"
	"github.com/climacast/climacast/internal/recommend"
	"github.com/climacast/climacast/internal/weather"
)

// ClimateSource provides climatology data.
type ClimateSource interface {
	GetClimatology(ctx context.Context, lat, lon float64) (*climate.Climatology, error)
	GetCachedClimatology(lat, lon float64) (*climate.Climatology, bool)
}

// WeatherSource provides live weather and forecasts.
type WeatherSource interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error)
	GetForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// GeocodeSource resolves place queries and coordinates.
type GeocodeSource interface {
	Forward(ctx context.Context, query string) (*geocode.Location, error)
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error)
}

// FlagSource exposes the runtime flags the pipeline honors.
type FlagSource interface {
	IsLiveWeatherDisabled(ctx context.Context) bool
	IsForecastDisabled(ctx context.Context) bool
	IsCachedOnlyClimatology(ctx context.Context) bool
	IsRunHistoryDisabled(ctx context.Context) bool
}

// ServiceConfig holds configuration for the analysis service.
type ServiceConfig struct {
	Climate    ClimateSource
	Weather    WeatherSource
	Geocode    GeocodeSource
	Flags      FlagSource
	Repository Repository
	Logger     zerolog.Logger

	// ForecastPointLimit caps how many forecast steps are stored per run
	// (default: 8, one day of 3-hour steps).
	ForecastPointLimit int
}

// Service runs analyses. At most one run executes at a time; concurrent
// requests are rejected with ErrRunInProgress rather than interleaved.
type Service struct {
	climate    ClimateSource
	weather    WeatherSource
	geocode    GeocodeSource
	flags      FlagSource
	repo       Repository
	logger     zerolog.Logger
	pointLimit int

	// inFlight is the single run slot. 1 while a run executes.
	inFlight chan struct{}
}

// NewService creates a new analysis service.
func NewService(cfg ServiceConfig) *Service {
	pointLimit := cfg.ForecastPointLimit
	if pointLimit == 0 {
		pointLimit = 8
	}

	return &Service{
		climate:    cfg.Climate,
		weather:    cfg.Weather,
		geocode:    cfg.Geocode,
		flags:      cfg.Flags,
		repo:       cfg.Repository,
		logger:     cfg.Logger,
		pointLimit: pointLimit,
		inFlight:   make(chan struct{}, 1),
	}
}

// Run executes one analysis. Input validation happens before any network
// call; the in-flight guard is always released, success or failure.
func (s *Service) Run(ctx context.Context, req RunRequest) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	select {
	case s.inFlight <- struct{}{}:
	default:
		return nil, ErrRunInProgress
	}
	defer func() { <-s.inFlight }()

	loc, err := s.resolveLocation(ctx, req)
	if err != nil {
		return nil, err
	}

	monthly, source, err := s.fetchClimatology(ctx, loc)
	if err != nil {
		return nil, err
	}

	// Live weather and forecast are fetched concurrently. Both are optional:
	// failures degrade the run to climatology-only output.
	live, forecast := s.fetchAuxiliary(ctx, loc)

	month := req.TargetDate.Month()
	likelihoods := hazard.ComputeLikelihoods(monthly, month)
	recommendations := recommend.Derive(likelihoods, live, forecast)
	summary := recommend.Summarize(loc.DisplayName, month, likelihoods, live)

	run := s.assemble(req, loc, monthly, source, live, forecast, likelihoods, recommendations, summary)

	if s.flags == nil || !s.flags.IsRunHistoryDisabled(ctx) {
		if s.repo != nil {
			if err := s.repo.Create(ctx, run); err != nil {
				// The analysis itself succeeded; history is best-effort.
				s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to persist analysis run")
			}
		}
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Str("location", loc.DisplayName).
		Str("month", month.String()).
		Bool("live_weather", live != nil).
		Bool("forecast", forecast != nil).
		Msg("analysis run complete")

	return run, nil
}

// Get retrieves a stored run by ID.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	if s.repo == nil {
		return nil, ErrRunNotFound
	}
	return s.repo.Get(ctx, id)
}

// List retrieves stored runs for a user, newest first.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	if s.repo == nil {
		return &ListResult{}, nil
	}
	return s.repo.List(ctx, userID, opts)
}

// Export renders a stored run as its downloadable document. Returns the
// suggested filename and the document bytes.
func (s *Service) Export(ctx context.Context, id string) (string, []byte, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}

	document, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", nil, err
	}

	return run.ExportFileName(), document, nil
}

// resolveLocation turns the request into a concrete location. A free-text
// query goes through forward geocoding; raw coordinates get a best-effort
// reverse-geocoded display name.
func (s *Service) resolveLocation(ctx context.Context, req RunRequest) (Location, error) {
	if req.Query != "" {
		resolved, err := s.geocode.Forward(ctx, req.Query)
		if err != nil {
			return Location{}, fmt.Errorf("resolving %q: %w", req.Query, err)
		}
		return Location{
			Latitude:    resolved.Lat,
			Longitude:   resolved.Lon,
			DisplayName: resolved.FormattedAddress,
		}, nil
	}

	// Reverse never fails; worst case is a coordinate label.
	resolved, err := s.geocode.Reverse(ctx, req.Latitude, req.Longitude)
	if err != nil {
		return Location{}, err
	}
	return Location{
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		DisplayName: resolved.FormattedAddress,
	}, nil
}

// fetchClimatology retrieves the mandatory climatology input. In cached-only
// mode a cache miss fails the run instead of going to the provider.
func (s *Service) fetchClimatology(ctx context.Context, loc Location) (climate.Monthly, string, error) {
	if s.flags != nil && s.flags.IsCachedOnlyClimatology(ctx) {
		clim, ok := s.climate.GetCachedClimatology(loc.Latitude, loc.Longitude)
		if !ok {
			return nil, "", fmt.Errorf("%w: location not in climatology cache", ErrClimatologyUnavailable)
		}
		return clim.Monthly, clim.Source, nil
	}

	clim, err := s.climate.GetClimatology(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrClimatologyUnavailable, err.Error())
	}
	return clim.Monthly, clim.Source, nil
}

// fetchAuxiliary fetches live weather and forecast concurrently. Either may
// come back nil; neither blocks the run on failure.
func (s *Service) fetchAuxiliary(ctx context.Context, loc Location) (*weather.Observation, *weather.Forecast) {
	var (
		wg       sync.WaitGroup
		live     *weather.Observation
		forecast *weather.Forecast
	)

	if s.flags == nil || !s.flags.IsLiveWeatherDisabled(ctx) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs, err := s.weather.GetCurrentWeather(ctx, loc.Latitude, loc.Longitude)
			if err != nil {
				s.logWeatherSkip(err, "live weather")
				return
			}
			live = obs
		}()
	}

	if s.flags == nil || !s.flags.IsForecastDisabled(ctx) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := s.weather.GetForecast(ctx, loc.Latitude, loc.Longitude)
			if err != nil {
				s.logWeatherSkip(err, "forecast")
				return
			}
			forecast = f
		}()
	}

	wg.Wait()
	return live, forecast
}

func (s *Service) logWeatherSkip(err error, what string) {
	if errors.Is(err, weather.ErrCredentialMissing) {
		s.logger.Debug().Str("source", what).Msg("skipping, no credential configured")
		return
	}
	s.logger.Warn().Err(err).Str("source", what).Msg("continuing without optional data")
}

// assemble builds the immutable run record.
func (s *Service) assemble(
	req RunRequest,
	loc Location,
	monthly climate.Monthly,
	source string,
	live *weather.Observation,
	forecast *weather.Forecast,
	likelihoods hazard.Likelihoods,
	recommendations []recommend.Recommendation,
	summary string,
) *Run {
	run := &Run{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		Location:          loc,
		TargetDate:        req.TargetDate,
		Climatology:       monthly,
		ClimatologySource: source,
		Summary:           summary,
		CreatedAt:         time.Now().UTC(),
	}

	if live != nil {
		run.LiveWeather = &LiveWeather{
			TemperatureC:          live.TemperatureC,
			ConditionsSummary:     live.ConditionsSummary,
			WindSpeedMS:           live.WindSpeedMS,
			HumidityPercent:       live.HumidityPercent,
			TimezoneOffsetSeconds: live.TimezoneOffsetSeconds,
		}
	}

	if forecast != nil {
		points := forecast.Points
		if len(points) > s.pointLimit {
			points = points[:s.pointLimit]
		}
		run.Forecast = make([]ForecastPoint, 0, len(points))
		for _, p := range points {
			run.Forecast = append(run.Forecast, ForecastPoint{
				Time:              p.Time,
				TemperatureC:      p.TemperatureC,
				ConditionsSummary: p.ConditionsSummary,
				WindSpeedMS:       p.WindSpeedMS,
				HumidityPercent:   p.HumidityPercent,
				PrecipProbability: p.PrecipProbability,
			})
		}
	}

	run.Likelihoods = make([]LikelihoodEntry, 0, len(likelihoods))
	for _, l := range likelihoods {
		run.Likelihoods = append(run.Likelihoods, LikelihoodEntry{
			Hazard:      l.Hazard,
			Parameter:   string(l.Parameter),
			Average:     l.Average,
			Threshold:   l.Threshold,
			Units:       l.Units,
			Description: l.Description,
			Score:       l.Score,
			Status:      l.Status,
		})
	}

	run.Recommendations = make([]RecommendationEntry, 0, len(recommendations))
	for _, rec := range recommendations {
		run.Recommendations = append(run.Recommendations, RecommendationEntry{
			Severity: rec.Severity,
			Text:     rec.Text,
		})
	}

	return run
}
