// Package recommend turns hazard scores and live conditions into activity
// advisories.
package recommend

import (
	"strings"

	"github.com/climacast/climacast/internal/hazard"
	"github.com/climacast/climacast/internal/weather"
)

// Severity grades a recommendation.
type Severity string

const (
	SeverityWarning Severity = "WARNING"
	SeverityCaution Severity = "CAUTION"
	SeveritySuccess Severity = "SUCCESS"
)

// Recommendation is one advisory statement. Order within a result set is
// significant: it defines display priority.
type Recommendation struct {
	Severity Severity
	Text     string
}

// highScoreCutoff is the score above which a hazard drives advisories.
const highScoreCutoff = 70

// Derive produces the ordered advisory list for an analysis. Rules are
// evaluated in a fixed order and append independently, except for the
// hiking/camping and sky-visibility branches, which each emit exactly one
// entry. Live data is optional: with live == nil the temperature is treated
// as unknown and conditions as clear. Forecast data is accepted for
// interface completeness but no current rule consumes it. The result is
// never empty.
func Derive(likelihoods hazard.Likelihoods, live *weather.Observation, forecast *weather.Forecast) []Recommendation {
	_ = forecast

	highWind := likelihoods.Score(hazard.NameVeryWindy) > highScoreCutoff
	highHeat := likelihoods.Score(hazard.NameVeryHot) > highScoreCutoff
	highRain := likelihoods.Score(hazard.NameHeavyRain) > highScoreCutoff

	conditions := "clear"
	tempKnown := false
	var temperature float64
	if live != nil {
		tempKnown = true
		temperature = live.TemperatureC
		// The summary carries the full description ("thunderstorm with heavy
		// rain"); the coarse bucket is only a fallback when it is absent.
		if live.ConditionsSummary != "" {
			conditions = strings.ToLower(live.ConditionsSummary)
		} else if live.Condition != "" && live.Condition != weather.ConditionUnknown {
			conditions = strings.ToLower(string(live.Condition))
		}
	}

	var recs []Recommendation

	// General planning
	if highWind {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Text:     "Secure all loose items. Avoid high-altitude activities like drone operations or high ropes.",
		})
	}
	if highHeat {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Text:     "Schedule outdoor work/activities for early morning or late evening. Ensure adequate hydration.",
		})
	}
	if highRain {
		recs = append(recs, Recommendation{
			Severity: SeverityCaution,
			Text:     "Plan for potential travel delays and have indoor backup options for any scheduled outdoor events.",
		})
	}

	// Hiking/camping branch: exactly one entry.
	switch {
	case highHeat && tempKnown && temperature > 28:
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Text:     "Hiking/Camping: High heat warning. Stick to shaded trails and carry extra water (3L+).",
		})
	case strings.Contains(conditions, "rain") || highRain:
		recs = append(recs, Recommendation{
			Severity: SeverityCaution,
			Text:     "Hiking/Camping: Ground may be wet and slippery. Pack waterproof gear and check for flash flood risks.",
		})
	default:
		recs = append(recs, Recommendation{
			Severity: SeveritySuccess,
			Text:     "Hiking/Camping: Conditions generally favorable, but check specific ground conditions.",
		})
	}

	// Sky-visibility branch: exactly one entry.
	if strings.Contains(conditions, "cloud") || highRain {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Text:     "Earth Observation/Astronomy: Cloud cover or precipitation is likely, which will severely impact visibility. Consider postponing.",
		})
	} else {
		recs = append(recs, Recommendation{
			Severity: SeveritySuccess,
			Text:     "Earth Observation/Astronomy: Good visibility expected. Check for localized atmospheric haze before setting up sensitive equipment.",
		})
	}

	// The branches above always emit at least two entries, but the result
	// must never be empty even if the rule set changes.
	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Severity: SeveritySuccess,
			Text:     "Excellent conditions are historically typical for this time of year. Proceed with confidence!",
		})
	}

	return recs
}
