package weather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "owm-test-key"

var testRegion = domain.Region{ID: 1, Name: "Centre Sud", Latitude: 11.67, Longitude: -1.07}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     testLogger(),
	}
}

func TestClient_CurrentWeather_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "fr", r.URL.Query().Get("lang"))
		assert.Equal(t, "11.67", r.URL.Query().Get("lat"))
		assert.Equal(t, "-1.07", r.URL.Query().Get("lon"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{
			"weather": [{"description": "ciel dégagé"}],
			"main": {"temp": 34.2, "feels_like": 36.8, "humidity": 28, "pressure": 1008},
			"wind": {"speed": 4.1}
		}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	reading, err := c.CurrentWeather(context.Background(), testRegion)
	require.NoError(t, err)

	assert.Equal(t, "Centre Sud", reading.Region)
	assert.Equal(t, 34.2, reading.Temperature)
	assert.Equal(t, 36.8, reading.FeelsLike)
	assert.Equal(t, 28.0, reading.Humidity)
	assert.Equal(t, "ciel dégagé", reading.Description)
	assert.Equal(t, 4.1, reading.WindSpeed)
	assert.Equal(t, 1008.0, reading.Pressure)
}

func TestClient_CurrentWeather_MissingConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"weather": [], "main": {"temp": 20}, "wind": {}}`))
	}))
	defer srv.Close()

	reading, err := testClient(srv.URL).CurrentWeather(context.Background(), testRegion)
	require.NoError(t, err)
	assert.Empty(t, reading.Description)
	assert.Equal(t, 20.0, reading.Temperature)
}

func TestClient_CurrentWeather_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CurrentWeather(context.Background(), testRegion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_CurrentWeather_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CurrentWeather(context.Background(), testRegion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_CurrentWeather_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testClient(srv.URL).CurrentWeather(context.Background(), testRegion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather request for Centre Sud")
}
