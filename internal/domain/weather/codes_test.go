package weather

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	cases := map[int]string{
		0:  "Clear sky",
		3:  "Overcast",
		45: "Foggy",
		61: "Slight rain",
		95: "Thunderstorm",
		99: "Thunderstorm with heavy hail",
		4:  "Unknown",
		-1: "Unknown",
	}
	for code, want := range cases {
		require.Equal(t, want, Describe(code), "code %d", code)
	}
}
