package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/weatherlens/internal/domain/weather"
)

// TimeOfDay buckets an hour of the day into a lighting period.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening/dusk"
	default:
		return "night"
	}
}

func buildInstruction(snap weather.Snapshot, at time.Time) string {
	period := TimeOfDay(at.Hour())

	var b strings.Builder
	b.WriteString("You are an expert at writing instructions for an AI image editing model.\n")
	b.WriteString("Write an editing instruction that transforms a photo so it matches the weather below.\n\n")
	b.WriteString("Weather conditions:\n")
	fmt.Fprintf(&b, "- Time: %02d:00 (%s)\n", at.Hour(), period)
	fmt.Fprintf(&b, "- Conditions: %s\n", snap.Description)
	fmt.Fprintf(&b, "- Temperature: %g°C\n", snap.Temperature)
	fmt.Fprintf(&b, "- Precipitation: %gmm\n", snap.Precipitation)
	fmt.Fprintf(&b, "- Cloud cover: %d%%\n", snap.CloudCover)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", snap.Humidity)
	fmt.Fprintf(&b, "- Wind speed: %g km/h\n\n", snap.WindSpeed)
	b.WriteString("Requirements:\n")
	b.WriteString("- Write 2-3 sentences and nothing else.\n")
	b.WriteString("- Describe the overall atmosphere and mood.\n")
	fmt.Fprintf(&b, "- Match the lighting to the %s.\n", period)
	b.WriteString("- Describe the sky and the visibility.\n")
	b.WriteString("- Add visible precipitation elements such as rain, snow or puddles when present.\n")
	b.WriteString("- Keep the original composition and subjects intact.\n")
	return b.String()
}
