package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/weatherlens/pkg/errors"
)

func TestServiceLookupSuccess(t *testing.T) {
	geo := &stubGeocoder{results: []Coordinates{{
		Latitude: 48.85, Longitude: 2.35, Name: "Paris", Country: "France", Timezone: "Europe/Paris",
	}}}
	forecasts := &stubForecasts{forecast: dayForecast("2024-06-01", "Europe/Paris")}
	svc := newTestService(geo, forecasts)

	snap, err := svc.Lookup(context.Background(), Request{Location: "  Paris ", Datetime: "2024-06-01T14:00"})
	require.NoError(t, err)
	require.Equal(t, "Paris, France", snap.Location)
	require.Equal(t, "2024-06-01T14:00", snap.Datetime)
	require.Equal(t, "Europe/Paris", snap.Timezone)
	require.Equal(t, 14.0, snap.Temperature)
	require.Equal(t, 50+14, snap.Humidity)
	require.Equal(t, 61, snap.WeatherCode)
	require.Equal(t, "Slight rain", snap.Description)
	require.True(t, snap.Hourly.Aligned())
	require.Len(t, snap.Hourly.Time, 24)

	require.Equal(t, "Paris", geo.lastName)
	require.Equal(t, 1, geo.lastCount)
	require.Equal(t, "2024-06-01", forecasts.lastQuery.Date)
	require.Equal(t, "Europe/Paris", forecasts.lastQuery.Timezone)
	require.False(t, forecasts.lastQuery.Archive)
}

func TestServiceLookupConvertsOffsetIntoLocationTime(t *testing.T) {
	geo := &stubGeocoder{results: []Coordinates{{Name: "Tokyo", Country: "Japan", Timezone: "Asia/Tokyo"}}}
	forecasts := &stubForecasts{forecast: dayForecast("2024-06-02", "Asia/Tokyo")}
	svc := newTestService(geo, forecasts)

	// 20:00 UTC is 05:00 the next day in Tokyo.
	snap, err := svc.Lookup(context.Background(), Request{Location: "Tokyo", Datetime: "2024-06-01T20:00:00Z"})
	require.NoError(t, err)
	require.Equal(t, "2024-06-02", forecasts.lastQuery.Date)
	require.Equal(t, 5.0, snap.Temperature)
}

func TestServiceLookupFallsBackToUTC(t *testing.T) {
	geo := &stubGeocoder{results: []Coordinates{{Name: "Nowhere"}}}
	forecasts := &stubForecasts{forecast: dayForecast("2024-06-01", "")}
	svc := newTestService(geo, forecasts)

	snap, err := svc.Lookup(context.Background(), Request{Location: "Nowhere", Datetime: "2024-06-01T09:30"})
	require.NoError(t, err)
	require.Equal(t, "UTC", forecasts.lastQuery.Timezone)
	require.Equal(t, "UTC", snap.Timezone)
	require.Equal(t, "Nowhere", snap.Location)
	require.Equal(t, 9.0, snap.Temperature)
}

func TestServiceLookupUsesIndexWhenTimestampsDiffer(t *testing.T) {
	forecast := dayForecast("2024-06-01", "UTC")
	for i := range forecast.Time {
		forecast.Time[i] = fmt.Sprintf("%d", 1717200000+i*3600)
	}
	svc := newTestService(&stubGeocoder{results: []Coordinates{{Name: "X", Timezone: "UTC"}}}, &stubForecasts{forecast: forecast})

	snap, err := svc.Lookup(context.Background(), Request{Location: "X", Datetime: "2024-06-01T22:00"})
	require.NoError(t, err)
	require.Equal(t, 22.0, snap.Temperature)
}

func TestServiceLookupArchiveForOldDates(t *testing.T) {
	forecasts := &stubForecasts{forecast: dayForecast("2020-01-01", "UTC")}
	svc := newTestService(&stubGeocoder{results: []Coordinates{{Name: "X", Timezone: "UTC"}}}, forecasts)

	_, err := svc.Lookup(context.Background(), Request{Location: "X", Datetime: "2020-01-01T10:00"})
	require.NoError(t, err)
	require.True(t, forecasts.lastQuery.Archive)
}

func TestServiceLookupValidation(t *testing.T) {
	cases := []Request{
		{Location: "", Datetime: "2024-06-01T10:00"},
		{Location: "Paris", Datetime: "   "},
		{Location: "Paris", Datetime: "yesterday"},
	}
	for _, req := range cases {
		geo := &stubGeocoder{}
		svc := newTestService(geo, &stubForecasts{})
		_, err := svc.Lookup(context.Background(), req)
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), "request %+v", req)
		require.Zero(t, geo.calls, "geocoder must not be called for %+v", req)
	}
}

func TestServiceLookupLocationNotFound(t *testing.T) {
	forecasts := &stubForecasts{}
	svc := newTestService(&stubGeocoder{}, forecasts)

	_, err := svc.Lookup(context.Background(), Request{Location: "Atlantis", Datetime: "2024-06-01T10:00"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Equal(t, "Location not found", apperrors.Message(err))
	require.Zero(t, forecasts.calls)
}

func TestServiceLookupUpstreamFailures(t *testing.T) {
	coords := []Coordinates{{Name: "X", Timezone: "UTC"}}

	_, err := newTestService(&stubGeocoder{err: errors.New("dns")}, &stubForecasts{}).
		Lookup(context.Background(), Request{Location: "X", Datetime: "2024-06-01T10:00"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	_, err = newTestService(&stubGeocoder{results: coords}, &stubForecasts{err: errors.New("503")}).
		Lookup(context.Background(), Request{Location: "X", Datetime: "2024-06-01T10:00"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	withNull := dayForecast("2024-06-01", "UTC")
	withNull.Temperature[10] = nil
	_, err = newTestService(&stubGeocoder{results: coords}, &stubForecasts{forecast: withNull}).
		Lookup(context.Background(), Request{Location: "X", Datetime: "2024-06-01T10:00"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	short := dayForecast("2024-06-01", "UTC")
	short.Time = short.Time[:12]
	short.Temperature = short.Temperature[:12]
	short.Humidity = short.Humidity[:12]
	short.Precipitation = short.Precipitation[:12]
	short.WeatherCode = short.WeatherCode[:12]
	short.CloudCover = short.CloudCover[:12]
	short.WindSpeed = short.WindSpeed[:12]
	_, err = newTestService(&stubGeocoder{results: coords}, &stubForecasts{forecast: short}).
		Lookup(context.Background(), Request{Location: "X", Datetime: "2024-06-01T18:00"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
}

func TestServiceLookupProviderRejectionIsInvalidInput(t *testing.T) {
	coords := []Coordinates{{Name: "X", Timezone: "UTC"}}
	rejected := &RejectedError{Status: 400, Reason: "Parameter 'start_date' is out of allowed range"}

	_, err := newTestService(&stubGeocoder{results: coords}, &stubForecasts{err: fmt.Errorf("fetch hourly: %w", rejected)}).
		Lookup(context.Background(), Request{Location: "X", Datetime: "2099-01-01T10:00"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, "Weather data unavailable for the requested date: Parameter 'start_date' is out of allowed range", apperrors.Message(err))

	_, err = newTestService(&stubGeocoder{err: &RejectedError{Status: 400}}, &stubForecasts{}).
		Lookup(context.Background(), Request{Location: "X", Datetime: "2024-06-01T10:00"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, "Location could not be searched", apperrors.Message(err))
}

func newTestService(geo Geocoder, forecasts ForecastClient) *service {
	return &service{
		cfg:       Config{Language: "en", ForecastWindow: 90 * 24 * time.Hour},
		geocoder:  geo,
		forecasts: forecasts,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: func() time.Time {
			return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		},
	}
}

// dayForecast builds a 24 hour series where temperature equals the hour.
func dayForecast(date, tz string) HourlyForecast {
	f := HourlyForecast{Timezone: tz}
	for h := 0; h < 24; h++ {
		f.Time = append(f.Time, fmt.Sprintf("%sT%02d:00", date, h))
		f.Temperature = append(f.Temperature, f64(float64(h)))
		f.Humidity = append(f.Humidity, intp(50+h))
		f.Precipitation = append(f.Precipitation, f64(0.5))
		f.WeatherCode = append(f.WeatherCode, intp(61))
		f.CloudCover = append(f.CloudCover, intp(80))
		f.WindSpeed = append(f.WindSpeed, f64(10))
	}
	return f
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

type stubGeocoder struct {
	results   []Coordinates
	err       error
	calls     int
	lastName  string
	lastCount int
}

func (s *stubGeocoder) Search(_ context.Context, name string, count int, _ string) ([]Coordinates, error) {
	s.calls++
	s.lastName = name
	s.lastCount = count
	return s.results, s.err
}

type stubForecasts struct {
	forecast  HourlyForecast
	err       error
	calls     int
	lastQuery ForecastQuery
}

func (s *stubForecasts) FetchHourly(_ context.Context, q ForecastQuery) (HourlyForecast, error) {
	s.calls++
	s.lastQuery = q
	return s.forecast, s.err
}
