package climate

import (
	"errors"
	"time"
)

// Climatology errors.
var (
	ErrProviderUnavailable = errors.New("climatology provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Parameter identifies a long-term climatology variable.
type Parameter string

const (
	// ParamMaxTemperature is the monthly mean daily maximum temperature at 2m (Celsius).
	ParamMaxTemperature Parameter = "T2M_MAX"

	// ParamMinTemperature is the monthly mean daily minimum temperature at 2m (Celsius).
	ParamMinTemperature Parameter = "T2M_MIN"

	// ParamPrecipitation is the monthly mean daily precipitation (mm/day).
	ParamPrecipitation Parameter = "PRECTOT"

	// ParamWindSpeed is the monthly mean wind speed at 10m (m/s).
	ParamWindSpeed Parameter = "WS10M"

	// ParamHumidity is the monthly mean relative humidity at 2m (percent).
	ParamHumidity Parameter = "RH2M"
)

// AllParameters lists every climatology parameter in request order.
func AllParameters() []Parameter {
	return []Parameter{
		ParamMaxTemperature,
		ParamMinTemperature,
		ParamPrecipitation,
		ParamWindSpeed,
		ParamHumidity,
	}
}

// Monthly holds long-term monthly averages keyed by parameter and month.
// A missing entry means the value is not available for that location; callers
// must treat absence as unavailable data rather than substituting zero.
type Monthly map[Parameter]map[time.Month]float64

// Value returns the average for a parameter and month, and whether it exists.
func (m Monthly) Value(param Parameter, month time.Month) (float64, bool) {
	months, ok := m[param]
	if !ok {
		return 0, false
	}
	v, ok := months[month]
	return v, ok
}

// Set records an average for a parameter and month.
func (m Monthly) Set(param Parameter, month time.Month, value float64) {
	months, ok := m[param]
	if !ok {
		months = make(map[time.Month]float64, 12)
		m[param] = months
	}
	months[month] = value
}

// ParameterCount returns the number of parameters with at least one month of data.
func (m Monthly) ParameterCount() int {
	n := 0
	for _, months := range m {
		if len(months) > 0 {
			n++
		}
	}
	return n
}

// Climatology represents long-term monthly averages for a location.
type Climatology struct {
	// Location coordinates
	Lat float64
	Lon float64

	// Monthly averages per parameter
	Monthly Monthly

	// Source is the provider that produced the data.
	Source string

	// FetchedAt is when the data was retrieved.
	FetchedAt time.Time
}
