package weather

import (
	"errors"
	"strings"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")

	// ErrCredentialMissing is returned when the provider has no API key
	// configured. Callers degrade gracefully instead of retrying.
	ErrCredentialMissing = errors.New("weather provider credential missing")
)

// Observation represents live weather at a specific point and time.
type Observation struct {
	// Location coordinates
	Lat float64
	Lon float64

	// TemperatureC is the air temperature in Celsius.
	TemperatureC float64

	// FeelsLikeC is the perceived temperature in Celsius.
	FeelsLikeC float64

	// HumidityPercent is relative humidity (0-100).
	HumidityPercent float64

	// WindSpeedMS is wind speed in m/s.
	WindSpeedMS float64

	// Condition is the coarse condition bucket.
	Condition Condition

	// ConditionsSummary is the provider's human-readable description,
	// e.g. "light rain" or "scattered clouds".
	ConditionsSummary string

	// CityName is the provider's place name for the coordinates, if any.
	CityName string

	// TimezoneOffsetSeconds is the location's UTC offset in seconds.
	TimezoneOffsetSeconds int

	// Timestamps
	ObservedAt time.Time
	FetchedAt  time.Time
}

// SummaryContains reports whether the conditions summary mentions the given
// term, case-insensitively. Used for condition keyword matching.
func (o *Observation) SummaryContains(term string) bool {
	if o == nil {
		return false
	}
	return strings.Contains(strings.ToLower(o.ConditionsSummary), strings.ToLower(term))
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// Forecast represents short-term forecast data in 3-hour steps.
type Forecast struct {
	// Location
	Lat float64
	Lon float64

	// CityName is the provider's place name for the coordinates, if any.
	CityName string

	// TimezoneOffsetSeconds is the location's UTC offset in seconds.
	TimezoneOffsetSeconds int

	// Points are the forecast steps in chronological order.
	Points []ForecastPoint

	// When the forecast was fetched
	FetchedAt time.Time
}

// ForecastPoint represents forecast conditions for one 3-hour step.
type ForecastPoint struct {
	Time              time.Time
	TemperatureC      float64
	FeelsLikeC        float64
	HumidityPercent   float64
	WindSpeedMS       float64
	Condition         Condition
	ConditionsSummary string
	PrecipProbability float64 // 0-1
}
