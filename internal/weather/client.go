// Package weather fetches current conditions from OpenWeatherMap and serves
// them through a time-boxed per-region cache.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/observability"
)

// Client implements domain.WeatherProvider using the OpenWeatherMap
// current-weather API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client with a fixed request timeout.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentWeather fetches the current reading for a region by coordinates.
// Metric units, French descriptions.
func (c *Client) CurrentWeather(ctx context.Context, region domain.Region) (domain.WeatherReading, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(region.Latitude, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(region.Longitude, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
		"lang":  {"fr"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.WeatherReading{}, fmt.Errorf("weather request for %s: %w", region.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.WeatherReading{}, fmt.Errorf("openweathermap API error: status %d: %s", resp.StatusCode, body)
	}

	var owm response
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.WeatherReading{}, fmt.Errorf("decode response: %w", err)
	}

	reading := domain.WeatherReading{
		Region:      region.Name,
		Temperature: owm.Main.Temp,
		FeelsLike:   owm.Main.FeelsLike,
		Humidity:    owm.Main.Humidity,
		WindSpeed:   owm.Wind.Speed,
		Pressure:    owm.Main.Pressure,
	}
	if len(owm.Weather) > 0 {
		reading.Description = owm.Weather[0].Description
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return reading, nil
}

// OpenWeatherMap API response types.

type response struct {
	Weather []condition `json:"weather"`
	Main    mainBlock   `json:"main"`
	Wind    windBlock   `json:"wind"`
}

type condition struct {
	Description string `json:"description"`
}

type mainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
}
