package prompt

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/weatherlens/pkg/errors"
)

// Service turns a weather snapshot into an image editing instruction.
type Service interface {
	Synthesize(ctx context.Context, req Request) (Response, error)
}

// TextGenerator is a single shot text model.
type TextGenerator interface {
	GenerateText(ctx context.Context, model, prompt string, temperature float32) (Generation, error)
}

type service struct {
	cfg    Config
	client TextGenerator
	logger *slog.Logger
}

// NewService is a wire provider for the prompt domain.
func NewService(cfg Config, client TextGenerator, logger *slog.Logger) Service {
	return &service{cfg: cfg, client: client, logger: logger.With("component", "prompt.service")}
}

func (s *service) Synthesize(ctx context.Context, req Request) (Response, error) {
	if req.WeatherData == nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Weather data is required", nil)
	}
	snap := *req.WeatherData
	at, err := snap.RequestedTime()
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "weatherData.datetime must be an ISO 8601 timestamp", err)
	}

	out, err := s.client.GenerateText(ctx, s.cfg.Model, buildInstruction(snap, at), s.cfg.Temperature)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeUpstream, "Failed to generate prompt", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeUpstream, "Text model returned an empty prompt", nil)
	}
	attrs := append([]any{"model", s.cfg.Model, "time_of_day", TimeOfDay(at.Hour())}, out.Usage.Attrs()...)
	s.logger.Info("prompt generated", attrs...)
	return Response{Prompt: text}, nil
}
