// Package hazard scores how typical extreme weather is for a location and
// month, based on long-term climatology.
package hazard

import "github.com/climacast/climacast/internal/climate"

// RiskDirection says on which side of the threshold the risk lies.
type RiskDirection string

const (
	// DirectionAbove flags values strictly above the threshold as high risk.
	DirectionAbove RiskDirection = "ABOVE"

	// DirectionBelow flags values strictly below the threshold as high risk.
	DirectionBelow RiskDirection = "BELOW"
)

// Hazard names.
const (
	NameVeryHot      = "Very Hot"
	NameVeryCold     = "Very Cold"
	NameHeavyRain    = "Heavy Rain"
	NameVeryWindy    = "Very Windy"
	NameHighHumidity = "High Humidity"
)

// Threshold defines one tracked extreme-weather category. The direction is an
// explicit field; it is never derived from the hazard name.
type Threshold struct {
	// Name is the hazard display name.
	Name string

	// Parameter is the climatology variable the hazard is scored on.
	Parameter climate.Parameter

	// Value is the threshold in the parameter's units.
	Value float64

	// Units is the display unit for the threshold and averages.
	Units string

	// Description explains the hazard in plain language.
	Description string

	// Direction says which side of the threshold is high risk.
	Direction RiskDirection
}

// thresholds is the fixed hazard table. Order is significant: results are
// produced and displayed in this order.
var thresholds = []Threshold{
	{
		Name:        NameVeryHot,
		Parameter:   climate.ParamMaxTemperature,
		Value:       32.0,
		Units:       "C",
		Description: "Maximum temperature often above 32°C (90°F)",
		Direction:   DirectionAbove,
	},
	{
		Name:        NameVeryCold,
		Parameter:   climate.ParamMinTemperature,
		Value:       0.0,
		Units:       "C",
		Description: "Minimum temperature often below 0°C (32°F)",
		Direction:   DirectionBelow,
	},
	{
		Name:        NameHeavyRain,
		Parameter:   climate.ParamPrecipitation,
		Value:       10.0,
		Units:       "mm/day",
		Description: "Average daily precipitation above 10mm",
		Direction:   DirectionAbove,
	},
	{
		Name:        NameVeryWindy,
		Parameter:   climate.ParamWindSpeed,
		Value:       8.0,
		Units:       "m/s",
		Description: "Average 10-meter wind speed above 8 m/s (~18 mph)",
		Direction:   DirectionAbove,
	},
	{
		Name:        NameHighHumidity,
		Parameter:   climate.ParamHumidity,
		Value:       75.0,
		Units:       "%",
		Description: "Average relative humidity above 75%",
		Direction:   DirectionAbove,
	},
}

// Thresholds returns the hazard table in display order. The returned slice is
// a copy; callers may not mutate the table.
func Thresholds() []Threshold {
	out := make([]Threshold, len(thresholds))
	copy(out, thresholds)
	return out
}
