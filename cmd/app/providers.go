package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yanqian/weatherlens/internal/domain/imageedit"
	"github.com/yanqian/weatherlens/internal/domain/job"
	"github.com/yanqian/weatherlens/internal/domain/prompt"
	"github.com/yanqian/weatherlens/internal/domain/weather"
	"github.com/yanqian/weatherlens/internal/infra/config"
	"github.com/yanqian/weatherlens/internal/infra/imageutil"
	"github.com/yanqian/weatherlens/internal/infra/llm/chatgpt"
	"github.com/yanqian/weatherlens/internal/infra/llm/gemini"
	"github.com/yanqian/weatherlens/internal/infra/openmeteo"
	"github.com/yanqian/weatherlens/internal/infra/replicate"
	"github.com/yanqian/weatherlens/internal/infra/upload"
	httpiface "github.com/yanqian/weatherlens/internal/interface/http"
	"github.com/yanqian/weatherlens/pkg/metrics"
)

func provideWeatherConfig(cfg *config.Config) weather.Config {
	return weather.Config{
		Language:       cfg.Weather.Language,
		ForecastWindow: cfg.Weather.ForecastWindow,
	}
}

func provideOpenMeteoClient(cfg *config.Config) *openmeteo.Client {
	return openmeteo.NewClient(openmeteo.Config{
		GeocodingURL: cfg.Weather.GeocodingURL,
		ForecastURL:  cfg.Weather.ForecastURL,
		ArchiveURL:   cfg.Weather.ArchiveURL,
		Timeout:      cfg.Weather.HTTPTimeout,
	})
}

func providePromptConfig(cfg *config.Config) prompt.Config {
	return prompt.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}
}

func provideTextGenerator(cfg *config.Config, logger *slog.Logger) (prompt.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model, logger)
	case config.ProviderOpenAI:
		return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}

func provideImageEditConfig(cfg *config.Config) imageedit.Config {
	return imageedit.Config{Model: cfg.ImageEdit.Model}
}

func provideReplicateClient(cfg *config.Config, logger *slog.Logger) (*replicate.Client, error) {
	return replicate.NewClient(cfg.ImageEdit.ReplicateToken, cfg.ImageEdit.ReplicateBaseURL, logger)
}

func provideImagePreparer(cfg *config.Config) *imageutil.Preparer {
	return imageutil.NewPreparer(cfg.ImageEdit.MaxDimension, cfg.ImageEdit.MaxPixels)
}

func provideUploadStore(cfg *config.Config, logger *slog.Logger) (job.UploadStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := upload.New(ctx, upload.Config{
		Backend: cfg.Upload.Backend,
		Dir:     cfg.Upload.Dir,
		S3: upload.S3Config{
			Endpoint:  cfg.Upload.S3.Endpoint,
			AccessKey: cfg.Upload.S3.AccessKey,
			SecretKey: cfg.Upload.S3.SecretKey,
			Bucket:    cfg.Upload.S3.Bucket,
			Region:    cfg.Upload.S3.Region,
			Prefix:    cfg.Upload.S3.Prefix,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("upload store ready", "backend", cfg.Upload.Backend, "dir", cfg.Upload.Dir)
	return store, nil
}

func provideJobConfig(cfg *config.Config) job.Config {
	return job.Config{
		WeatherTimeout: cfg.Stages.WeatherTimeout,
		PromptTimeout:  cfg.Stages.PromptTimeout,
		EditTimeout:    cfg.Stages.EditTimeout,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}
}

func provideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideStageRecorder(reg *prometheus.Registry) *metrics.StageRecorder {
	return metrics.NewStageRecorder(reg)
}

func provideHandler(cfg *config.Config, orchestrator *job.Orchestrator, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(orchestrator, cfg.Upload.MaxBytes, logger)
}
