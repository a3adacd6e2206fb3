package models

// RunAnalysisRequest is the request body for starting an analysis run.
// Either a free-text query or an explicit coordinate pair must be set.
type RunAnalysisRequest struct {
	Query      *string  `json:"query,omitempty"`
	Lat        *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lon        *float64 `json:"lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
	TargetDate string   `json:"targetDate" validate:"required"`
}

// AnalysisLocation is the resolved location of a run.
type AnalysisLocation struct {
	DisplayName string `json:"displayName"`
	Point       Point  `json:"point"`
}

// HazardLikelihood is one scored hazard in a run.
type HazardLikelihood struct {
	Hazard      string   `json:"hazard"`
	Parameter   string   `json:"parameter"`
	Average     *float64 `json:"average"`
	Threshold   float64  `json:"threshold"`
	Units       string   `json:"units"`
	Description string   `json:"description"`
	Score       int      `json:"score"`
	Status      string   `json:"status"`
}

// LiveWeather is the current-conditions snapshot attached to a run.
type LiveWeather struct {
	TemperatureC          float64 `json:"temperatureC"`
	Conditions            string  `json:"conditions"`
	WindSpeedMS           float64 `json:"windSpeedMs"`
	HumidityPercent       float64 `json:"humidityPercent"`
	TimezoneOffsetSeconds int     `json:"timezoneOffsetSeconds"`
}

// ForecastPoint is one forecast step attached to a run.
type ForecastPoint struct {
	Time              Timestamp `json:"time"`
	TemperatureC      float64   `json:"temperatureC"`
	Conditions        string    `json:"conditions"`
	WindSpeedMS       float64   `json:"windSpeedMs"`
	HumidityPercent   float64   `json:"humidityPercent"`
	PrecipProbability float64   `json:"precipProbability"`
}

// Recommendation is one advisory line derived from a run.
type Recommendation struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

// AnalysisRun is a completed analysis run.
type AnalysisRun struct {
	ID                string             `json:"id"`
	Location          AnalysisLocation   `json:"location"`
	TargetDate        string             `json:"targetDate"`
	ClimatologySource string             `json:"climatologySource"`
	Likelihoods       []HazardLikelihood `json:"likelihoods"`
	LiveWeather       *LiveWeather       `json:"liveWeather,omitempty"`
	Forecast          []ForecastPoint    `json:"forecast,omitempty"`
	Recommendations   []Recommendation   `json:"recommendations"`
	Summary           string             `json:"summary"`
	CreatedAt         Timestamp          `json:"createdAt"`
}

// PagedAnalysisRuns represents a paginated list of analysis runs.
type PagedAnalysisRuns struct {
	Items []AnalysisRun     `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
