package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockpulse",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of screening and detail endpoints",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockpulse",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by endpoint",
		},
		[]string{"endpoint"},
	)

	CandidatesReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockpulse",
			Subsystem: "api",
			Name:      "screen_candidates",
			Help:      "Candidates returned per screen call",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500},
		},
		[]string{"endpoint"},
	)
)

// Register adds the endpoint collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, CandidatesReturned)
	})
}

// Observe records latency since start and counts err, if any.
func Observe(endpoint string, start time.Time, err error) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		EndpointErrors.WithLabelValues(endpoint).Inc()
	}
}
