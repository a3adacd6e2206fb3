package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climacast/climacast/internal/provider/resilience"
	"github.com/climacast/climacast/internal/weather"
	"github.com/climacast/climacast/internal/weather/openweathermap"
)

func TestClient_GetCurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("lat"), "40.712")
		assert.Contains(t, r.URL.Query().Get("lon"), "-74.006")
		assert.Equal(t, "****", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		response := map[string]interface{}{
			"coord": map[string]float64{
				"lat": 40.7128,
				"lon": -74.0060,
			},
			"weather": []map[string]interface{}{
				{
					"id":          500,
					"main":        "Rain",
					"description": "light rain",
				},
			},
			"main": map[string]float64{
				"temp":       29.4,
				"feels_like": 31.2,
				"pressure":   1012.0,
				"humidity":   78.0,
			},
			"wind": map[string]float64{
				"speed": 6.1,
				"deg":   220.0,
			},
			"dt":       time.Now().Unix(),
			"timezone": -14400,
			"name":     "New York",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	obs, err := client.GetCurrentWeather(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	require.NotNil(t, obs)

	assert.Equal(t, 40.7128, obs.Lat)
	assert.Equal(t, -74.0060, obs.Lon)
	assert.Equal(t, 29.4, obs.TemperatureC)
	assert.Equal(t, 31.2, obs.FeelsLikeC)
	assert.Equal(t, 78.0, obs.HumidityPercent)
	assert.Equal(t, 6.1, obs.WindSpeedMS)
	assert.Equal(t, weather.ConditionRain, obs.Condition)
	assert.Equal(t, "light rain", obs.ConditionsSummary)
	assert.Equal(t, "New York", obs.CityName)
	assert.Equal(t, -14400, obs.TimezoneOffsetSeconds)
}

func TestClient_GetCurrentWeather_MissingAPIKey(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	_, err := client.GetCurrentWeather(context.Background(), 40.7, -74.0)
	require.ErrorIs(t, err, weather.ErrCredentialMissing)
	assert.False(t, called, "no network call without a credential")

	_, err = client.GetForecast(context.Background(), 40.7, -74.0)
	require.ErrorIs(t, err, weather.ErrCredentialMissing)
	assert.False(t, called)
}

func TestClient_GetCurrentWeather_AllConditions(t *testing.T) {
	conditions := []struct {
		owmMain  string
		expected weather.Condition
	}{
		{"Clear", weather.ConditionClear},
		{"Clouds", weather.ConditionClouds},
		{"Rain", weather.ConditionRain},
		{"Drizzle", weather.ConditionDrizzle},
		{"Thunderstorm", weather.ConditionThunderstorm},
		{"Snow", weather.ConditionSnow},
		{"Mist", weather.ConditionMist},
		{"Fog", weather.ConditionFog},
		{"Haze", weather.ConditionHaze},
		{"Dust", weather.ConditionHaze},
		{"Unknown", weather.ConditionUnknown},
	}

	for _, tc := range conditions {
		t.Run(tc.owmMain, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				response := map[string]interface{}{
					"coord": map[string]float64{"lat": 40.0, "lon": -74.0},
					"weather": []map[string]interface{}{
						{"main": tc.owmMain, "description": "test"},
					},
					"main": map[string]float64{"temp": 20.0, "humidity": 50.0},
					"wind": map[string]float64{"speed": 5.0, "deg": 180.0},
					"dt":   time.Now().Unix(),
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(response)
			}))
			defer server.Close()

			client := openweathermap.NewClient(openweathermap.ClientConfig{
				APIKey:     "****",
				BaseURL:    server.URL,
				HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
			})

			obs, err := client.GetCurrentWeather(context.Background(), 40.0, -74.0)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, obs.Condition)
		})
	}
}

func TestClient_GetForecast(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		response := map[string]interface{}{
			"list": []map[string]interface{}{
				{
					"dt": now.Add(3 * time.Hour).Unix(),
					"main": map[string]float64{
						"temp":       19.0,
						"feels_like": 18.5,
						"humidity":   70.0,
					},
					"weather": []map[string]interface{}{
						{"main": "Clouds", "description": "few clouds"},
					},
					"wind": map[string]float64{"speed": 5.0, "deg": 200.0},
					"pop":  0.1,
				},
				{
					"dt": now.Add(6 * time.Hour).Unix(),
					"main": map[string]float64{
						"temp":       17.5,
						"feels_like": 17.0,
						"humidity":   82.0,
					},
					"weather": []map[string]interface{}{
						{"main": "Rain", "description": "light rain"},
					},
					"wind": map[string]float64{"speed": 7.0, "deg": 210.0},
					"pop":  0.6,
				},
			},
			"city": map[string]interface{}{
				"name":     "New York",
				"timezone": -14400,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	forecast, err := client.GetForecast(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	require.NotNil(t, forecast)

	assert.Equal(t, "New York", forecast.CityName)
	assert.Equal(t, -14400, forecast.TimezoneOffsetSeconds)
	require.Len(t, forecast.Points, 2)

	p1 := forecast.Points[0]
	assert.Equal(t, 19.0, p1.TemperatureC)
	assert.Equal(t, 70.0, p1.HumidityPercent)
	assert.Equal(t, 5.0, p1.WindSpeedMS)
	assert.Equal(t, 0.1, p1.PrecipProbability)
	assert.Equal(t, weather.ConditionClouds, p1.Condition)

	p2 := forecast.Points[1]
	assert.Equal(t, weather.ConditionRain, p2.Condition)
	assert.Equal(t, "light rain", p2.ConditionsSummary)
}

func TestClient_GetCurrentWeather_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// Use a client with a single attempt for faster tests
	cfg := resilience.DefaultClientConfig("test")
	cfg.MaxAttempts = 1

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(cfg),
	})

	_, err := client.GetCurrentWeather(context.Background(), 40.7, -74.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_GetCurrentWeather_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetCurrentWeather(ctx, 40.7, -74.0)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey: "****",
	})

	assert.Equal(t, "openweathermap", client.Name())
}
