package prompt

import (
	"github.com/yanqian/weatherlens/internal/domain/weather"
	"github.com/yanqian/weatherlens/pkg/metrics"
)

// Request carries the snapshot returned by the weather lookup.
type Request struct {
	WeatherData *weather.Snapshot `json:"weatherData"`
}

// Response is the image editing instruction.
type Response struct {
	Prompt string `json:"prompt"`
}

// Generation is one completed text model call.
type Generation struct {
	Text  string
	Usage metrics.TokenUsage
}

// Config wires runtime settings for prompt synthesis.
type Config struct {
	Model       string
	Temperature float32
}
