package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the domain Metrics port using Prometheus.
type Recorder struct {
	refreshTotal      *prometheus.CounterVec
	refreshDuration   *prometheus.HistogramVec
	snapshotRows      prometheus.Gauge
	consecutiveErrors prometheus.Gauge
	errorsTotal       *prometheus.CounterVec
	signalsPublished  *prometheus.CounterVec
	latency           *prometheus.HistogramVec
}

// New creates a recorder registered on reg. Pass prometheus.DefaultRegisterer
// in the service and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_refresh_attempts_total",
				Help: "Snapshot refresh attempts by result",
			},
			[]string{"result"},
		),
		refreshDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_refresh_duration_seconds",
				Help:    "Duration of snapshot refresh attempts",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"result"},
		),
		snapshotRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "stockpulse_snapshot_rows",
			Help: "Rows in the currently served snapshot",
		}),
		consecutiveErrors: f.NewGauge(prometheus.GaugeOpts{
			Name: "stockpulse_refresh_consecutive_errors",
			Help: "Failed refresh attempts since the last success",
		}),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		signalsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_signals_published_total",
				Help: "Buy signals published",
			},
			[]string{"code"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh records one refresh attempt.
func (r *Recorder) RecordRefresh(result string, seconds float64) {
	r.refreshTotal.WithLabelValues(result).Inc()
	r.refreshDuration.WithLabelValues(result).Observe(seconds)
}

func (r *Recorder) RecordSnapshotRows(n int) {
	r.snapshotRows.Set(float64(n))
}

func (r *Recorder) RecordConsecutiveErrors(n int) {
	r.consecutiveErrors.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSignalPublished(code string) {
	r.signalsPublished.WithLabelValues(code).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRefresh(string, float64) {}
func (Nop) RecordSnapshotRows(int) {}
func (Nop) RecordConsecutiveErrors(int) {}
func (Nop) RecordError(string) {}
func (Nop) RecordSignalPublished(string) {}
func (Nop) RecordLatency(string, float64) {}
