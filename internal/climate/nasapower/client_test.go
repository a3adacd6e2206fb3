package nasapower_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climacast/climacast/internal/climate"
	"github.com/climacast/climacast/internal/climate/nasapower"
	"github.com/climacast/climacast/internal/provider/resilience"
)

func monthSeries(base float64) map[string]float64 {
	months := make(map[string]float64, 13)
	for m := 1; m <= 12; m++ {
		months[strconv.Itoa(m)] = base + float64(m)
	}
	months["13"] = base // annual aggregate, must be ignored
	return months
}

func TestClient_GetClimatology(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "T2M_MAX,T2M_MIN,PRECTOT,WS10M,RH2M", query.Get("parameters"))
		assert.Equal(t, "AG", query.Get("community"))
		assert.Equal(t, "JSON", query.Get("format"))
		assert.Contains(t, query.Get("latitude"), "40.71")
		assert.Contains(t, query.Get("longitude"), "-74.00")

		response := map[string]interface{}{
			"properties": map[string]interface{}{
				"parameter": map[string]interface{}{
					"T2M_MAX": monthSeries(20.0),
					"T2M_MIN": monthSeries(5.0),
					"PRECTOT": monthSeries(2.0),
					"WS10M":   monthSeries(3.0),
					"RH2M":    monthSeries(60.0),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := nasapower.NewClient(nasapower.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	clim, err := client.GetClimatology(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	require.NotNil(t, clim)

	assert.Equal(t, 40.7128, clim.Lat)
	assert.Equal(t, -74.0060, clim.Lon)
	assert.Equal(t, "nasa-power", clim.Source)
	assert.Equal(t, 5, clim.Monthly.ParameterCount())

	july, ok := clim.Monthly.Value(climate.ParamMaxTemperature, time.July)
	require.True(t, ok)
	assert.Equal(t, 27.0, july)

	// The annual aggregate key "13" must not leak into any month.
	for _, param := range climate.AllParameters() {
		assert.Len(t, clim.Monthly[param], 12)
	}
}

func TestClient_GetClimatology_FillValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"properties": map[string]interface{}{
				"parameter": map[string]interface{}{
					"T2M_MAX": map[string]float64{
						"1": 10.5,
						"2": -999.0, // fill value, no data
						"3": 15.2,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := nasapower.NewClient(nasapower.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	clim, err := client.GetClimatology(context.Background(), 40.0, -74.0)
	require.NoError(t, err)

	_, ok := clim.Monthly.Value(climate.ParamMaxTemperature, time.February)
	assert.False(t, ok, "fill values must be treated as absent")

	jan, ok := clim.Monthly.Value(climate.ParamMaxTemperature, time.January)
	require.True(t, ok)
	assert.Equal(t, 10.5, jan)
}

func TestClient_GetClimatology_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := resilience.DefaultClientConfig("test")
	cfg.MaxAttempts = 1

	client := nasapower.NewClient(nasapower.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(cfg),
	})

	_, err := client.GetClimatology(context.Background(), 40.0, -74.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_GetClimatology_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := nasapower.NewClient(nasapower.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetClimatology(ctx, 40.0, -74.0)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client := nasapower.NewClient(nasapower.ClientConfig{})
	assert.Equal(t, "nasa-power", client.Name())
}
