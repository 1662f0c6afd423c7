package metrics

import (
	"net/http"

	"swing_advisor/internal/scanner"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects scan, training and advice metrics on a private registry.
type Recorder struct {
	registry   *prometheus.Registry
	scans      prometheus.Counter
	skipped    *prometheus.CounterVec
	candidates prometheus.Counter
	runs       *prometheus.CounterVec
	advice     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

var _ scanner.Observer = (*Recorder)(nil)

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scans: factory.NewCounter(prometheus.CounterOpts{
			Name: "swing_scans_total",
			Help: "Total number of universe scans",
		}),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swing_scan_skipped_assets_total",
				Help: "Assets left out of a scan, by reason",
			},
			[]string{"reason"},
		),
		candidates: factory.NewCounter(prometheus.CounterOpts{
			Name: "swing_scan_candidates_total",
			Help: "Assets passing every momentum predicate",
		}),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swing_training_runs_total",
				Help: "Per-asset training runs, by result",
			},
			[]string{"result"},
		),
		advice: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swing_advice_total",
				Help: "Recommendations produced, by action",
			},
			[]string{"recommendation"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swing_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) AssetSkipped(reason scanner.SkipReason) {
	r.skipped.WithLabelValues(string(reason)).Inc()
}

func (r *Recorder) CandidateFound() { r.candidates.Inc() }

func (r *Recorder) RecordScan() { r.scans.Inc() }

// RecordTraining counts one asset training outcome: trained, skipped or failed.
func (r *Recorder) RecordTraining(result string) {
	r.runs.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordAdvice(recommendation string) {
	r.advice.WithLabelValues(recommendation).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
