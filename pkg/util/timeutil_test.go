package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	cases := []struct {
		name     string
		in       string
		wantHour int
		wantDay  int
	}{
		{name: "wall clock seconds", in: "2024-06-15T14:00:00", wantHour: 14, wantDay: 15},
		{name: "wall clock minutes", in: "2024-06-15T14:30", wantHour: 14, wantDay: 15},
		{name: "space separator", in: "2024-06-15 07:05", wantHour: 7, wantDay: 15},
		{name: "utc offset converted", in: "2024-06-15T12:00:00Z", wantHour: 14, wantDay: 15},
		{name: "explicit offset crosses midnight", in: "2024-06-15T23:30:00+00:00", wantHour: 1, wantDay: 16},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, err := ParseDateTime(tc.in, paris)
			require.NoError(t, err)
			require.Equal(t, tc.wantHour, ts.Hour())
			require.Equal(t, tc.wantDay, ts.Day())
			require.Equal(t, paris, ts.Location())
		})
	}
}

func TestParseDateTimeRejectsGarbage(t *testing.T) {
	_, err := ParseDateTime("yesterday afternoon", time.UTC)
	require.Error(t, err)

	_, err = ParseDateTime("   ", time.UTC)
	require.Error(t, err)
}

func TestParseDateTimeNilLocationDefaultsToUTC(t *testing.T) {
	ts, err := ParseDateTime("2024-01-02T03:04:05", nil)
	require.NoError(t, err)
	require.Equal(t, time.UTC, ts.Location())
	require.Equal(t, 3, ts.Hour())
}
