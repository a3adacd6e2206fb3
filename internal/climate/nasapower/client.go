package nasapower

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/provider/resilience"
)

const (
	// ProviderName identifies this climatology provider.
	ProviderName = "nasa-power"

	// DefaultBaseURL is the NASA POWER climatology endpoint.
	DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal/climatology/point"

	// fillValueCutoff marks the NASA POWER fill-value convention: readings at
	// or below this (typically -999) mean the value is not available.
	fillValueCutoff = -900.0
)

// ClientConfig holds configuration for the NASA POWER client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public endpoint).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a NASA POWER climatology API client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new NASA POWER client. The climatology endpoint needs
// no API key.
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
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetClimatology fetches long-term monthly averages for a location.
func (c *Client) GetClimatology(ctx context.Context, lat, lon float64) (*climate.Climatology, error) {
	params := make([]string, 0, len(climate.AllParameters()))
	for _, p := range climate.AllParameters() {
		params = append(params, string(p))
	}

	url := fmt.Sprintf("%s?parameters=%s&community=AG&longitude=%.4f&latitude=%.4f&format=JSON",
		c.baseURL, strings.Join(params, ","), lon, lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var powerResp climatologyResponse
	if err := json.NewDecoder(resp.Body).Decode(&powerResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toClimatology(lat, lon, &powerResp), nil
}

// toClimatology converts a NASA POWER response to the domain model.
// Month keys are "1" through "12"; key "13" is the annual aggregate and is
// skipped. Fill values (<= -900) are dropped so absence means unavailable.
func (c *Client) toClimatology(lat, lon float64, resp *climatologyResponse) *climate.Climatology {
	monthly := make(climate.Monthly, len(resp.Properties.Parameter))

	for name, months := range resp.Properties.Parameter {
		param := climate.Parameter(name)
		for key, value := range months {
			monthNum, err := strconv.Atoi(key)
			if err != nil || monthNum < 1 || monthNum > 12 {
				continue
			}
			if value <= fillValueCutoff {
				continue
			}
			monthly.Set(param, time.Month(monthNum), value)
		}
	}

	return &climate.Climatology{
		Lat:       lat,
		Lon:       lon,
		Monthly:   monthly,
		Source:    ProviderName,
		FetchedAt: time.Now(),
	}
}

// NASA POWER API response structure.

type climatologyResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}
