package models

// GeocodeResult is a resolved location from forward or reverse geocoding.
// Approximate is true when the name is a coordinate fallback rather than a
// real address.
type GeocodeResult struct {
	FormattedAddress string `json:"formattedAddress"`
	Point            Point  `json:"point"`
	Approximate      bool   `json:"approximate"`
}
