package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/weatherlens/internal/domain/weather"
)

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	defaultArchiveURL   = "https://archive-api.open-meteo.com/v1/archive"

	hourlyVariables = "temperature_2m,relative_humidity_2m,precipitation,weather_code,cloud_cover,wind_speed_10m"
)

var errCircuitOpen = errors.New("open-meteo circuit breaker open")

// Config points the client at the Open-Meteo endpoints.
type Config struct {
	GeocodingURL string
	ForecastURL  string
	ArchiveURL   string
	Timeout      time.Duration
}

// Client talks to the Open-Meteo geocoding, forecast and archive APIs. Calls
// are guarded by a circuit breaker and are never retried.
type Client struct {
	geocodingURL string
	forecastURL  string
	archiveURL   string
	httpClient   *http.Client
	circuit      *gobreaker.CircuitBreaker
}

// NewClient builds an API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		geocodingURL: orDefault(cfg.GeocodingURL, defaultGeocodingURL),
		forecastURL:  orDefault(cfg.ForecastURL, defaultForecastURL),
		archiveURL:   orDefault(cfg.ArchiveURL, defaultArchiveURL),
		httpClient:   &http.Client{Timeout: timeout},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         "openmeteo",
			MaxRequests:  5,
			Interval:     time.Minute,
			Timeout:      2 * time.Minute,
			IsSuccessful: healthyOutcome,
		}),
	}
}

// Search geocodes a place name.
func (c *Client) Search(ctx context.Context, name string, count int, language string) ([]weather.Coordinates, error) {
	values := url.Values{}
	values.Set("name", name)
	values.Set("count", strconv.Itoa(count))
	values.Set("format", "json")
	if language != "" {
		values.Set("language", language)
	}

	var payload geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL, values, &payload); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", name, err)
	}

	out := make([]weather.Coordinates, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, weather.Coordinates{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Name:      r.Name,
			Country:   r.Country,
			Timezone:  r.Timezone,
		})
	}
	return out, nil
}

// FetchHourly retrieves one day of hourly values.
func (c *Client) FetchHourly(ctx context.Context, q weather.ForecastQuery) (weather.HourlyForecast, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	values.Set("hourly", hourlyVariables)
	values.Set("start_date", q.Date)
	values.Set("end_date", q.Date)
	values.Set("timezone", orDefault(q.Timezone, "auto"))

	endpoint := c.forecastURL
	if q.Archive {
		endpoint = c.archiveURL
	}

	var payload forecastResponse
	if err := c.getJSON(ctx, endpoint, values, &payload); err != nil {
		return weather.HourlyForecast{}, fmt.Errorf("fetch hourly %s: %w", q.Date, err)
	}
	h := payload.Hourly
	return weather.HourlyForecast{
		Timezone:      payload.Timezone,
		Time:          h.Time,
		Temperature:   h.Temperature,
		Humidity:      h.Humidity,
		Precipitation: h.Precipitation,
		WeatherCode:   h.WeatherCode,
		CloudCover:    h.CloudCover,
		WindSpeed:     h.WindSpeed,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, providerReason(body))
		case resp.StatusCode >= 400:
			return nil, &weather.RejectedError{Status: resp.StatusCode, Reason: providerReason(body)}
		case resp.StatusCode >= 300:
			return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, providerReason(body))
		}
		return body, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	if err != nil {
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// healthyOutcome keeps rejected queries from tripping the breaker; they say
// nothing about provider health.
func healthyOutcome(err error) bool {
	var rejected *weather.RejectedError
	return err == nil || errors.As(err, &rejected)
}

// providerReason extracts Open-Meteo's {"error":true,"reason":...} message.
func providerReason(body []byte) string {
	var e struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &e) == nil && e.Reason != "" {
		return e.Reason
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return string(body)
}

func orDefault(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

type geocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

type forecastResponse struct {
	Timezone string       `json:"timezone"`
	Hourly   hourlyValues `json:"hourly"`
}

type hourlyValues struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	Humidity      []*int     `json:"relative_humidity_2m"`
	Precipitation []*float64 `json:"precipitation"`
	WeatherCode   []*int     `json:"weather_code"`
	CloudCover    []*int     `json:"cloud_cover"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
}

var (
	_ weather.Geocoder       = (*Client)(nil)
	_ weather.ForecastClient = (*Client)(nil)
)
