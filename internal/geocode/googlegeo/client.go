package googlegeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/climacast/climacast/internal/geocode"
	"github.com/climacast/climacast/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "google-geocoding"

	// DefaultBaseURL is the Google Geocoding API endpoint.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

// ClientConfig holds configuration for the Google Geocoding client.
type ClientConfig struct {
	// APIKey is the Google Geocoding API key. When empty, calls fail with
	// geocode.ErrCredentialMissing before any network request.
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the public endpoint).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Geocoding API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Google Geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Forward resolves a free-form address query to coordinates.
func (c *Client) Forward(ctx context.Context, query string) (*geocode.Location, error) {
	if c.apiKey == "" {
		return nil, geocode.ErrCredentialMissing
	}

	params := url.Values{
		"address": {query},
		"key":     {c.apiKey},
	}

	return c.doRequest(ctx, c.baseURL+"?"+params.Encode(), "forward")
}

// Reverse resolves coordinates to the nearest formatted address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	if c.apiKey == "" {
		return nil, geocode.ErrCredentialMissing
	}

	params := url.Values{
		"latlng": {fmt.Sprintf("%.6f,%.6f", lat, lon)},
		"key":    {c.apiKey},
	}

	return c.doRequest(ctx, c.baseURL+"?"+params.Encode(), "reverse")
}

func (c *Client) doRequest(ctx context.Context, fullURL, direction string) (*geocode.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s geocode request: %w", direction, err)
	}
	defer resp.Body.Close()

	var geoResp geocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch geoResp.Status {
	case "OK":
		// fall through to result handling
	case "ZERO_RESULTS":
		return nil, geocode.ErrNotFound
	default:
		return nil, fmt.Errorf("geocoding API status %s: %s", geoResp.Status, geoResp.ErrorMessage)
	}

	if len(geoResp.Results) == 0 {
		return nil, geocode.ErrNotFound
	}

	r := geoResp.Results[0]
	return &geocode.Location{
		FormattedAddress: r.FormattedAddress,
		Lat:              r.Geometry.Location.Lat,
		Lon:              r.Geometry.Location.Lng,
	}, nil
}

// Google Geocoding API response types.

type geocodingResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}
