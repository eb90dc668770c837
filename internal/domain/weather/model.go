package weather

import (
	"fmt"
	"time"

	"github.com/yanqian/weatherlens/pkg/util"
)

// Request captures the payload accepted by the weather lookup.
type Request struct {
	Location string `json:"location" validate:"required"`
	Datetime string `json:"datetime" validate:"required"`
}

// Coordinates is a geocoded place.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Snapshot is the weather at the requested hour plus the full-day series used
// for charting. The client posts it back unchanged for prompt synthesis.
type Snapshot struct {
	Location      string       `json:"location"`
	Coordinates   Coordinates  `json:"coordinates"`
	Datetime      string       `json:"datetime"`
	Timezone      string       `json:"timezone,omitempty"`
	Temperature   float64      `json:"temperature"`
	Humidity      int          `json:"humidity"`
	Precipitation float64      `json:"precipitation"`
	WeatherCode   int          `json:"weatherCode"`
	CloudCover    int          `json:"cloudCover"`
	WindSpeed     float64      `json:"windSpeed"`
	Description   string       `json:"description"`
	Hourly        HourlySeries `json:"hourlyForecast"`
}

// RequestedTime resolves Datetime in the snapshot's timezone.
func (s Snapshot) RequestedTime() (time.Time, error) {
	return util.ParseDateTime(s.Datetime, loadLocation(s.Timezone))
}

// HourlySeries holds index aligned values, one per hour of the day. Missing
// provider values stay nil so charts can render gaps.
type HourlySeries struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature"`
	Precipitation []*float64 `json:"precipitation"`
	Humidity      []*int     `json:"humidity"`
	WindSpeed     []*float64 `json:"windSpeed"`
}

// Aligned reports whether every series has the same length as Time.
func (h HourlySeries) Aligned() bool {
	n := len(h.Time)
	return len(h.Temperature) == n &&
		len(h.Precipitation) == n &&
		len(h.Humidity) == n &&
		len(h.WindSpeed) == n
}

// ForecastQuery asks a provider for one calendar day of hourly values.
type ForecastQuery struct {
	Latitude  float64
	Longitude float64
	Date      string
	Timezone  string
	Archive   bool
}

// HourlyForecast is the provider's raw hourly day.
type HourlyForecast struct {
	Timezone      string
	Time          []string
	Temperature   []*float64
	Humidity      []*int
	Precipitation []*float64
	WeatherCode   []*int
	CloudCover    []*int
	WindSpeed     []*float64
}

// RejectedError is returned by providers that refuse a query as invalid, such
// as a date outside the range they serve. It is the caller's fault, not an
// outage.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("provider rejected request: status=%d reason=%s", e.Status, e.Reason)
}

// Config wires runtime settings for the weather domain.
type Config struct {
	Language       string
	ForecastWindow time.Duration
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
