package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage outcomes recorded by StageRecorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StageRecorder tracks pipeline stage latency and outcomes.
type StageRecorder struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	uploads  prometheus.Gauge
}

// NewStageRecorder registers the pipeline collectors on reg.
func NewStageRecorder(reg prometheus.Registerer) *StageRecorder {
	r := &StageRecorder{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weatherlens_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weatherlens_stage_total",
				Help: "Pipeline stage invocations by outcome and error code",
			},
			[]string{"stage", "outcome", "code"},
		),
		uploads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weatherlens_uploads_in_flight",
			Help: "Uploaded images currently held in temporary storage",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.duration, r.total, r.uploads)
	}
	return r
}

// Observe records a finished stage. code is empty on success.
func (r *StageRecorder) Observe(stage string, started time.Time, code string) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if code != "" {
		outcome = OutcomeFailure
	}
	r.duration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	r.total.WithLabelValues(stage, outcome, code).Inc()
}

// UploadStored marks a temporary upload as held.
func (r *StageRecorder) UploadStored() {
	if r == nil {
		return
	}
	r.uploads.Inc()
}

// UploadReleased marks a temporary upload as deleted.
func (r *StageRecorder) UploadReleased() {
	if r == nil {
		return
	}
	r.uploads.Dec()
}
