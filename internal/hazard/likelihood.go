package hazard

import (
	"math"
	"time"

	"github.com/climacast/climacast/internal/climate"
)

// Status labels a likelihood result.
type Status string

const (
	StatusHighLikelihood  Status = "HIGH_LIKELIHOOD"
	StatusLowLikelihood   Status = "LOW_LIKELIHOOD"
	StatusDataUnavailable Status = "DATA_UNAVAILABLE"
)

// Likelihood is the scored result for one hazard.
type Likelihood struct {
	// Hazard is the hazard display name.
	Hazard string

	// Parameter is the climatology variable the score is based on.
	Parameter climate.Parameter

	// Average is the monthly average the score was derived from.
	// Nil when the value is unavailable.
	Average *float64

	// Threshold and Units echo the hazard table entry.
	Threshold float64
	Units     string

	// Description explains the hazard in plain language.
	Description string

	// Score is the likelihood in [0,100].
	Score int

	// Status labels the result.
	Status Status
}

// Likelihoods is an ordered result set, one entry per hazard table row.
type Likelihoods []Likelihood

// Score returns the score for a hazard by name, or 0 when absent.
func (l Likelihoods) Score(hazard string) int {
	for _, r := range l {
		if r.Hazard == hazard {
			return r.Score
		}
	}
	return 0
}

// HighRiskHazards returns the names of hazards scoring above 70, in table order.
func (l Likelihoods) HighRiskHazards() []string {
	var names []string
	for _, r := range l {
		if r.Score > 70 {
			names = append(names, r.Hazard)
		}
	}
	return names
}

// ComputeLikelihoods scores every hazard for the given month. Results come
// back in the hazard table's fixed order. The function is pure: no I/O, no
// mutation of its inputs, and it never fails, even when the climatology is
// entirely empty (all hazards then score 0 with StatusDataUnavailable).
//
// Scoring is a linear distance-from-threshold heuristic. Equality with the
// threshold is never high risk; comparison is strict in the hazard's risk
// direction.
func ComputeLikelihoods(monthly climate.Monthly, month time.Month) Likelihoods {
	results := make(Likelihoods, 0, len(thresholds))

	for _, t := range thresholds {
		result := Likelihood{
			Hazard:      t.Name,
			Parameter:   t.Parameter,
			Threshold:   t.Value,
			Units:       t.Units,
			Description: t.Description,
		}

		average, ok := monthly.Value(t.Parameter, month)
		if !ok {
			result.Score = 0
			result.Status = StatusDataUnavailable
			results = append(results, result)
			continue
		}

		result.Average = &average

		highRisk := false
		switch t.Direction {
		case DirectionAbove:
			highRisk = average > t.Value
		case DirectionBelow:
			highRisk = average < t.Value
		}

		difference := math.Abs(average - t.Value)
		var score float64
		if highRisk {
			score = math.Min(100, 50+difference*10)
			result.Status = StatusHighLikelihood
		} else {
			score = math.Max(0, 50-difference*5)
			result.Status = StatusLowLikelihood
		}

		result.Score = clampScore(int(math.Round(score)))
		results = append(results, result)
	}

	return results
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
