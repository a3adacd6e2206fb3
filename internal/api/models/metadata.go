package models

// HazardThreshold describes one hazard definition used for scoring.
type HazardThreshold struct {
	Name        string  `json:"name"`
	Parameter   string  `json:"parameter"`
	Threshold   float64 `json:"threshold"`
	Units       string  `json:"units"`
	Description string  `json:"description"`
	Direction   string  `json:"direction"`
}

// Enums represents the enum values used by the API.
type Enums struct {
	Statuses   []string `json:"statuses"`
	Severities []string `json:"severities"`
	Directions []string `json:"directions"`
}
