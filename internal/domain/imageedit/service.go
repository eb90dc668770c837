package imageedit

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/weatherlens/pkg/errors"
)

const defaultModel = "google/nano-banana"

// Service edits an image according to a text instruction.
type Service interface {
	Edit(ctx context.Context, req Request) (Result, error)
}

// ImageModel runs a hosted image model to completion.
type ImageModel interface {
	Run(ctx context.Context, model string, input map[string]any) (any, error)
}

type service struct {
	cfg    Config
	model  ImageModel
	logger *slog.Logger
}

// NewService is a wire provider for the image edit domain.
func NewService(cfg Config, model ImageModel, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	return &service{cfg: cfg, model: model, logger: logger.With("component", "imageedit.service")}
}

func (s *service) Edit(ctx context.Context, req Request) (Result, error) {
	if len(req.Image) == 0 {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Image is required", nil)
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Prompt is required", nil)
	}

	input := map[string]any{
		"prompt":      prompt,
		"image_input": []string{DataURI(req.MimeType, req.Image)},
	}
	raw, err := s.model.Run(ctx, s.cfg.Model, input)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeUpstream, "Failed to process image", err)
	}

	out := ClassifyOutput(raw)
	if out.Kind == OutputUnknown || out.URL == "" {
		s.logger.Error("unrecognized model output", "model", s.cfg.Model, "kind", out.Kind.String(), "type", typeName(raw))
		return Result{}, apperrors.Wrap(apperrors.CodeUpstream, "Image model returned an unrecognized result", nil)
	}
	s.logger.Info("image edited", "model", s.cfg.Model, "kind", out.Kind.String(), "bytes", len(req.Image))
	return Result{URL: out.URL, Kind: out.Kind}, nil
}

// DataURI encodes raw bytes as an inline data URI.
func DataURI(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
