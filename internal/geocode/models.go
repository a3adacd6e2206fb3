package geocode

import "errors"

// Geocoding errors.
var (
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	ErrNotFound            = errors.New("no geocoding results")
	ErrInvalidQuery        = errors.New("invalid geocoding query")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")

	// ErrCredentialMissing is returned when the provider has no API key
	// configured.
	ErrCredentialMissing = errors.New("geocoding provider credential missing")
)

// Location is a resolved place.
type Location struct {
	// FormattedAddress is the display label for the place.
	FormattedAddress string

	// Coordinates
	Lat float64
	Lon float64

	// Approximate is true when the label is a coordinate fallback rather
	// than a resolved address.
	Approximate bool
}
