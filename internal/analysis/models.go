// Package analysis orchestrates a full extreme-weather analysis run: resolve
// the location, fetch climatology and live conditions, score hazards, and
// derive recommendations.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/hazard"
	"github.com/climacast/climacast/internal/recommend"
)

// Analysis errors.
var (
	// ErrRunInProgress is returned when a run is requested while another is
	// already executing. Runs never interleave.
	ErrRunInProgress = errors.New("an analysis run is already in progress")

	// ErrRunNotFound is returned when a stored run does not exist.
	ErrRunNotFound = errors.New("analysis run not found")

	// ErrInvalidCoordinates is returned for out-of-range coordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidDate is returned for a missing or unparseable target date.
	ErrInvalidDate = errors.New("invalid target date")

	// ErrNoLocation is returned when a request has neither coordinates nor a
	// place query.
	ErrNoLocation = errors.New("no location provided")

	// ErrClimatologyUnavailable is returned when the mandatory climatology
	// fetch fails; it wraps the underlying cause.
	ErrClimatologyUnavailable = errors.New("climatology unavailable")
)

// Location is the resolved place an analysis was run for.
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

// RunRequest describes one requested analysis.
type RunRequest struct {
	// Query is a free-text place query. When set, it takes precedence over
	// the coordinates and is resolved via forward geocoding.
	Query string

	// Latitude and Longitude select the location directly when Query is empty.
	Latitude  float64
	Longitude float64

	// HasCoordinates distinguishes explicit (0,0) from absent coordinates.
	HasCoordinates bool

	// TargetDate is the date the analysis is scored for; only its month
	// drives the climatology lookup.
	TargetDate time.Time

	// UserID identifies the anonymous requester, if known.
	UserID string
}

// Validate checks the request before any network call is made.
func (r *RunRequest) Validate() error {
	if r.Query == "" && !r.HasCoordinates {
		return ErrNoLocation
	}
	if r.Query == "" {
		if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
			return ErrInvalidCoordinates
		}
	}
	if r.TargetDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// LiveWeather is the live-conditions snapshot stored with a run.
type LiveWeather struct {
	TemperatureC          float64 `json:"temperatureC"`
	ConditionsSummary     string  `json:"conditionsSummary"`
	WindSpeedMS           float64 `json:"windSpeedMS"`
	HumidityPercent       float64 `json:"humidityPercent"`
	TimezoneOffsetSeconds int     `json:"timezoneOffsetSeconds"`
}

// ForecastPoint is one step of the forecast snapshot stored with a run.
type ForecastPoint struct {
	Time              time.Time `json:"time"`
	TemperatureC      float64   `json:"temperatureC"`
	ConditionsSummary string    `json:"conditionsSummary"`
	WindSpeedMS       float64   `json:"windSpeedMS"`
	HumidityPercent   float64   `json:"humidityPercent"`
	PrecipProbability float64   `json:"precipProbability"`
}

// LikelihoodEntry is one scored hazard stored with a run.
type LikelihoodEntry struct {
	Hazard      string        `json:"hazard"`
	Parameter   string        `json:"parameter"`
	Average     *float64      `json:"average"`
	Threshold   float64       `json:"threshold"`
	Units       string        `json:"units"`
	Description string        `json:"description"`
	Score       int           `json:"score"`
	Status      hazard.Status `json:"status"`
}

// RecommendationEntry is one advisory stored with a run. Order matters.
type RecommendationEntry struct {
	Severity recommend.Severity `json:"severity"`
	Text     string             `json:"text"`
}

// Run is a completed analysis. Immutable once assembled; serializable in full
// for export.
type Run struct {
	ID     string `json:"id"`
	UserID string `json:"userId,omitempty"`

	Location   Location  `json:"location"`
	TargetDate time.Time `json:"targetDate"`

	// Climatology holds the monthly averages the scores were derived from,
	// keyed by parameter then month number. Absent entries mean no data.
	Climatology climate.Monthly `json:"climatology"`

	// ClimatologySource names the provider the climatology came from.
	ClimatologySource string `json:"climatologySource"`

	// LiveWeather and Forecast are nil when the source was unavailable,
	// unconfigured, or disabled.
	LiveWeather *LiveWeather    `json:"liveWeather"`
	Forecast    []ForecastPoint `json:"forecast"`

	Likelihoods     []LikelihoodEntry     `json:"likelihoods"`
	Recommendations []RecommendationEntry `json:"recommendations"`

	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

// Month returns the month the run was scored for.
func (r *Run) Month() time.Month {
	return r.TargetDate.Month()
}

// ExportFileName returns the download filename for the run's export document.
func (r *Run) ExportFileName() string {
	return fmt.Sprintf("weather_analysis_%d.json", r.CreatedAt.UnixMilli())
}
