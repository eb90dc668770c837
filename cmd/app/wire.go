//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanqian/weatherlens/internal/bootstrap"
	"github.com/yanqian/weatherlens/internal/domain/imageedit"
	"github.com/yanqian/weatherlens/internal/domain/job"
	"github.com/yanqian/weatherlens/internal/domain/prompt"
	"github.com/yanqian/weatherlens/internal/domain/weather"
	"github.com/yanqian/weatherlens/internal/infra/config"
	"github.com/yanqian/weatherlens/internal/infra/imageutil"
	"github.com/yanqian/weatherlens/internal/infra/openmeteo"
	"github.com/yanqian/weatherlens/internal/infra/replicate"
	httpiface "github.com/yanqian/weatherlens/internal/interface/http"
	"github.com/yanqian/weatherlens/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideWeatherConfig,
		provideOpenMeteoClient,
		providePromptConfig,
		provideTextGenerator,
		provideImageEditConfig,
		provideReplicateClient,
		provideImagePreparer,
		provideUploadStore,
		provideJobConfig,
		provideMetricsRegistry,
		provideStageRecorder,
		weather.NewService,
		prompt.NewService,
		imageedit.NewService,
		job.NewOrchestrator,
		wire.Bind(new(weather.Geocoder), new(*openmeteo.Client)),
		wire.Bind(new(weather.ForecastClient), new(*openmeteo.Client)),
		wire.Bind(new(imageedit.ImageModel), new(*replicate.Client)),
		wire.Bind(new(job.ImagePreparer), new(*imageutil.Preparer)),
		wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
