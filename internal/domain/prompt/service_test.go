package prompt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherlens/internal/domain/weather"
	apperrors "github.com/yanqian/weatherlens/pkg/errors"
	"github.com/yanqian/weatherlens/pkg/metrics"
)

func TestTimeOfDay(t *testing.T) {
	cases := map[int]string{
		0: "night", 4: "night", 5: "morning", 11: "morning",
		12: "afternoon", 16: "afternoon", 17: "evening/dusk", 20: "evening/dusk",
		21: "night", 23: "night",
	}
	for hour, want := range cases {
		require.Equal(t, want, TimeOfDay(hour), "hour %d", hour)
	}
}

func TestSynthesizeBuildsTemplateAndTrims(t *testing.T) {
	gen := &stubGenerator{out: Generation{
		Text:  "  Darken the sky with heavy grey clouds. Add falling rain and wet reflections.  \n",
		Usage: metrics.TokenUsage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
	}}
	svc := newTestService(gen)

	resp, err := svc.Synthesize(context.Background(), Request{WeatherData: &weather.Snapshot{
		Datetime:      "2024-06-01T18:30",
		Timezone:      "Europe/Paris",
		Description:   "Moderate rain",
		Temperature:   14.2,
		Precipitation: 3.4,
		CloudCover:    95,
		Humidity:      88,
		WindSpeed:     21.5,
	}})
	require.NoError(t, err)
	require.Equal(t, "Darken the sky with heavy grey clouds. Add falling rain and wet reflections.", resp.Prompt)

	require.Equal(t, "gemini-test", gen.model)
	require.Contains(t, gen.prompt, "18:00 (evening/dusk)")
	require.Contains(t, gen.prompt, "Moderate rain")
	require.Contains(t, gen.prompt, "14.2°C")
	require.Contains(t, gen.prompt, "3.4mm")
	require.Contains(t, gen.prompt, "95%")
	require.Contains(t, gen.prompt, "88%")
	require.Contains(t, gen.prompt, "21.5 km/h")
	require.Contains(t, gen.prompt, "2-3 sentences")
}

func TestSynthesizeConvertsOffsetIntoSnapshotZone(t *testing.T) {
	gen := &stubGenerator{out: Generation{Text: "Night scene."}}
	svc := newTestService(gen)

	_, err := svc.Synthesize(context.Background(), Request{WeatherData: &weather.Snapshot{
		Datetime: "2024-06-01T14:00:00Z",
		Timezone: "Asia/Tokyo",
	}})
	require.NoError(t, err)
	require.Contains(t, gen.prompt, "23:00 (night)")
}

func TestSynthesizeErrors(t *testing.T) {
	_, err := newTestService(&stubGenerator{}).Synthesize(context.Background(), Request{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = newTestService(&stubGenerator{}).Synthesize(context.Background(), Request{WeatherData: &weather.Snapshot{Datetime: "soon"}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	snap := &weather.Snapshot{Datetime: "2024-06-01T10:00"}
	_, err = newTestService(&stubGenerator{err: errors.New("quota")}).Synthesize(context.Background(), Request{WeatherData: snap})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	_, err = newTestService(&stubGenerator{out: Generation{Text: " \n "}}).Synthesize(context.Background(), Request{WeatherData: snap})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
}

func newTestService(gen TextGenerator) Service {
	return NewService(Config{Model: "gemini-test", Temperature: 0.7}, gen, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type stubGenerator struct {
	out    Generation
	err    error
	model  string
	prompt string
}

func (s *stubGenerator) GenerateText(_ context.Context, model, prompt string, _ float32) (Generation, error) {
	s.model = model
	s.prompt = prompt
	return s.out, s.err
}
