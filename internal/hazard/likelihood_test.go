package hazard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/hazard"
)

func TestThresholds_TableOrder(t *testing.T) {
	table := hazard.Thresholds()
	require.Len(t, table, 5)

	assert.Equal(t, hazard.NameVeryHot, table[0].Name)
	assert.Equal(t, hazard.NameVeryCold, table[1].Name)
	assert.Equal(t, hazard.NameHeavyRain, table[2].Name)
	assert.Equal(t, hazard.NameVeryWindy, table[3].Name)
	assert.Equal(t, hazard.NameHighHumidity, table[4].Name)

	// Very Cold is the only below-threshold hazard.
	assert.Equal(t, hazard.DirectionBelow, table[1].Direction)
	for _, i := range []int{0, 2, 3, 4} {
		assert.Equal(t, hazard.DirectionAbove, table[i].Direction, table[i].Name)
	}
}

func TestThresholds_ReturnsCopy(t *testing.T) {
	table := hazard.Thresholds()
	table[0].Value = 999

	assert.Equal(t, 32.0, hazard.Thresholds()[0].Value)
}

func TestComputeLikelihoods_HotAboveThreshold(t *testing.T) {
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamMaxTemperature, time.July, 35.0)

	results := hazard.ComputeLikelihoods(monthly, time.July)
	require.Len(t, results, 5)

	hot := results[0]
	assert.Equal(t, hazard.NameVeryHot, hot.Hazard)
	require.NotNil(t, hot.Average)
	assert.Equal(t, 35.0, *hot.Average)
	// 50 + |35-32|*10 = 80
	assert.Equal(t, 80, hot.Score)
	assert.Equal(t, hazard.StatusHighLikelihood, hot.Status)
}

func TestComputeLikelihoods_MissingParameter(t *testing.T) {
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamMaxTemperature, time.July, 25.0)
	// PRECTOT absent entirely.

	results := hazard.ComputeLikelihoods(monthly, time.July)

	rain := results[2]
	assert.Equal(t, hazard.NameHeavyRain, rain.Hazard)
	assert.Nil(t, rain.Average)
	assert.Equal(t, 0, rain.Score)
	assert.Equal(t, hazard.StatusDataUnavailable, rain.Status)
}

func TestComputeLikelihoods_EmptyClimatology(t *testing.T) {
	results := hazard.ComputeLikelihoods(make(climate.Monthly), time.January)
	require.Len(t, results, 5)

	for _, r := range results {
		assert.Equal(t, 0, r.Score, r.Hazard)
		assert.Equal(t, hazard.StatusDataUnavailable, r.Status, r.Hazard)
		assert.Nil(t, r.Average, r.Hazard)
	}
}

func TestComputeLikelihoods_EqualityIsLowRisk(t *testing.T) {
	monthly := make(climate.Monthly)
	for _, th := range hazard.Thresholds() {
		monthly.Set(th.Parameter, time.March, th.Value)
	}

	results := hazard.ComputeLikelihoods(monthly, time.March)
	for _, r := range results {
		// Strict inequality: a value exactly at the threshold is low risk,
		// and the low-risk formula yields 50 at zero distance.
		assert.Equal(t, hazard.StatusLowLikelihood, r.Status, r.Hazard)
		assert.Equal(t, 50, r.Score, r.Hazard)
	}
}

func TestComputeLikelihoods_BelowDirection(t *testing.T) {
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamMinTemperature, time.January, -4.0)

	results := hazard.ComputeLikelihoods(monthly, time.January)

	cold := results[1]
	assert.Equal(t, hazard.NameVeryCold, cold.Hazard)
	// 50 + |-4-0|*10 = 90
	assert.Equal(t, 90, cold.Score)
	assert.Equal(t, hazard.StatusHighLikelihood, cold.Status)

	// A mild winter minimum is low risk.
	monthly.Set(climate.ParamMinTemperature, time.January, 5.0)
	results = hazard.ComputeLikelihoods(monthly, time.January)
	cold = results[1]
	// 50 - |5-0|*5 = 25
	assert.Equal(t, 25, cold.Score)
	assert.Equal(t, hazard.StatusLowLikelihood, cold.Status)
}

func TestComputeLikelihoods_ScoreClamping(t *testing.T) {
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamMaxTemperature, time.July, 55.0)  // 50+230 clamps to 100
	monthly.Set(climate.ParamPrecipitation, time.July, 0.0)    // 50-50 = 0
	monthly.Set(climate.ParamWindSpeed, time.July, 0.5)        // 50-37.5 = 12.5 -> 13
	monthly.Set(climate.ParamHumidity, time.July, 10.0)        // 50-325 clamps to 0
	monthly.Set(climate.ParamMinTemperature, time.July, -20.0) // 50+200 clamps to 100

	results := hazard.ComputeLikelihoods(monthly, time.July)

	assert.Equal(t, 100, results.Score(hazard.NameVeryHot))
	assert.Equal(t, 100, results.Score(hazard.NameVeryCold))
	assert.Equal(t, 0, results.Score(hazard.NameHeavyRain))
	assert.Equal(t, 13, results.Score(hazard.NameVeryWindy))
	assert.Equal(t, 0, results.Score(hazard.NameHighHumidity))

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0, r.Hazard)
		assert.LessOrEqual(t, r.Score, 100, r.Hazard)
	}
}

func TestLikelihoods_Score(t *testing.T) {
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamWindSpeed, time.May, 10.5)

	results := hazard.ComputeLikelihoods(monthly, time.May)
	assert.Equal(t, 75, results.Score(hazard.NameVeryWindy))
	assert.Equal(t, 0, results.Score("No Such Hazard"))
}

func TestLikelihoods_HighRiskHazards(t *testing.T) {
	monthly := make(climate.Monthly)
	monthly.Set(climate.ParamMaxTemperature, time.July, 38.0) // 100
	monthly.Set(climate.ParamWindSpeed, time.July, 11.0)      // 80
	monthly.Set(climate.ParamHumidity, time.July, 70.0)       // low risk

	results := hazard.ComputeLikelihoods(monthly, time.July)
	assert.Equal(t, []string{hazard.NameVeryHot, hazard.NameVeryWindy}, results.HighRiskHazards())
}
