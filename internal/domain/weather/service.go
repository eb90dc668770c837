package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/yanqian/weatherlens/pkg/errors"
	"github.com/yanqian/weatherlens/pkg/util"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "2006-01-02T15:00"
)

var validate = validator.New()

// Service resolves a place and time into a weather snapshot.
type Service interface {
	Lookup(ctx context.Context, req Request) (Snapshot, error)
}

// Geocoder resolves free text place names.
type Geocoder interface {
	Search(ctx context.Context, name string, count int, language string) ([]Coordinates, error)
}

// ForecastClient fetches one day of hourly weather.
type ForecastClient interface {
	FetchHourly(ctx context.Context, q ForecastQuery) (HourlyForecast, error)
}

type service struct {
	cfg       Config
	geocoder  Geocoder
	forecasts ForecastClient
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the weather lookup domain.
func NewService(cfg Config, geocoder Geocoder, forecasts ForecastClient, logger *slog.Logger) Service {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &service{
		cfg:       cfg,
		geocoder:  geocoder,
		forecasts: forecasts,
		logger:    logger.With("component", "weather.service"),
		now:       util.NowUTC,
	}
}

func (s *service) Lookup(ctx context.Context, req Request) (Snapshot, error) {
	req.Location = strings.TrimSpace(req.Location)
	req.Datetime = strings.TrimSpace(req.Datetime)
	if err := validate.Struct(req); err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Location and datetime are required", err)
	}
	// Reject unparseable input before spending a geocoding call on it.
	if _, err := util.ParseDateTime(req.Datetime, time.UTC); err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeInvalidInput, "datetime must be an ISO 8601 timestamp", err)
	}

	coords, err := s.resolve(ctx, req.Location)
	if err != nil {
		return Snapshot{}, err
	}

	tz := coords.Timezone
	loc, err := time.LoadLocation(tz)
	if tz == "" || err != nil {
		s.logger.Warn("geocoded timezone unavailable, using UTC", "location", req.Location, "timezone", tz)
		tz, loc = "UTC", time.UTC
	}
	local, err := util.ParseDateTime(req.Datetime, loc)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeInvalidInput, "datetime must be an ISO 8601 timestamp", err)
	}

	query := ForecastQuery{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Date:      local.Format(dateLayout),
		Timezone:  tz,
		Archive:   s.useArchive(local),
	}
	forecast, err := s.forecasts.FetchHourly(ctx, query)
	if err != nil {
		if rejected := asRejected(err); rejected != nil {
			return Snapshot{}, apperrors.Wrap(apperrors.CodeInvalidInput, rejectedMessage("Weather data unavailable for the requested date", rejected), err)
		}
		return Snapshot{}, apperrors.Wrap(apperrors.CodeUpstream, "Failed to fetch weather data", err)
	}
	s.logger.Info("weather series fetched", "location", req.Location, "date", query.Date, "timezone", tz, "archive", query.Archive, "hours", len(forecast.Time))

	snapshot, err := extractHour(forecast, local)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeUpstream, "Weather data unavailable for the requested hour", err)
	}
	snapshot.Location = displayName(coords)
	snapshot.Coordinates = coords
	snapshot.Datetime = req.Datetime
	snapshot.Timezone = firstNonEmpty(forecast.Timezone, tz)
	return snapshot, nil
}

func (s *service) resolve(ctx context.Context, name string) (Coordinates, error) {
	results, err := s.geocoder.Search(ctx, name, 1, s.cfg.Language)
	if err != nil {
		if rejected := asRejected(err); rejected != nil {
			return Coordinates{}, apperrors.Wrap(apperrors.CodeInvalidInput, rejectedMessage("Location could not be searched", rejected), err)
		}
		return Coordinates{}, apperrors.Wrap(apperrors.CodeUpstream, "Failed to geocode location", err)
	}
	if len(results) == 0 {
		return Coordinates{}, apperrors.Wrap(apperrors.CodeNotFound, "Location not found", nil)
	}
	return results[0], nil
}

func (s *service) useArchive(local time.Time) bool {
	if s.cfg.ForecastWindow <= 0 {
		return false
	}
	return local.Before(s.now().Add(-s.cfg.ForecastWindow))
}

// extractHour indexes every hourly array at the entry whose provider
// timestamp matches the requested local hour.
func extractHour(f HourlyForecast, local time.Time) (Snapshot, error) {
	n := len(f.Time)
	if n == 0 {
		return Snapshot{}, fmt.Errorf("provider returned an empty hourly series")
	}
	if len(f.Temperature) != n || len(f.Humidity) != n || len(f.Precipitation) != n ||
		len(f.WeatherCode) != n || len(f.CloudCover) != n || len(f.WindSpeed) != n {
		return Snapshot{}, fmt.Errorf("provider returned misaligned hourly arrays")
	}

	idx := indexOfHour(f.Time, local)
	if idx < 0 {
		return Snapshot{}, fmt.Errorf("hour %s not present in provider series", local.Format(hourLayout))
	}

	temp, humidity, precip := f.Temperature[idx], f.Humidity[idx], f.Precipitation[idx]
	code, cloud, wind := f.WeatherCode[idx], f.CloudCover[idx], f.WindSpeed[idx]
	if temp == nil || humidity == nil || precip == nil || code == nil || cloud == nil || wind == nil {
		return Snapshot{}, fmt.Errorf("provider returned null values for %s", f.Time[idx])
	}

	return Snapshot{
		Temperature:   *temp,
		Humidity:      *humidity,
		Precipitation: *precip,
		WeatherCode:   *code,
		CloudCover:    *cloud,
		WindSpeed:     *wind,
		Description:   Describe(*code),
		Hourly: HourlySeries{
			Time:          f.Time,
			Temperature:   f.Temperature,
			Precipitation: f.Precipitation,
			Humidity:      f.Humidity,
			WindSpeed:     f.WindSpeed,
		},
	}, nil
}

func indexOfHour(times []string, local time.Time) int {
	want := local.Format(hourLayout)
	for i, ts := range times {
		if strings.HasPrefix(ts, want) {
			return i
		}
	}
	// Some providers emit unix or offset timestamps; a plain day series still
	// lines up by hour number.
	if len(times) == 24 {
		return local.Hour()
	}
	return -1
}

func asRejected(err error) *RejectedError {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected
	}
	return nil
}

func rejectedMessage(prefix string, rejected *RejectedError) string {
	if reason := strings.TrimSpace(rejected.Reason); reason != "" {
		return prefix + ": " + reason
	}
	return prefix
}

func displayName(c Coordinates) string {
	switch {
	case c.Name != "" && c.Country != "":
		return c.Name + ", " + c.Country
	case c.Name != "":
		return c.Name
	default:
		return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
