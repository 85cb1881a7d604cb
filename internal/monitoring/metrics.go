// Package monitoring exposes Prometheus metrics for the serve path.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survival_predictions_total",
		Help: "Completed predictions by horizon and predicted class.",
	}, []string{"year", "prediction"})

	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survival_failures_total",
		Help: "Failed predictions by error kind.",
	}, []string{"kind"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "survival_request_duration_seconds",
		Help:    "End-to-end prediction latency.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObservePrediction records a completed prediction.
func ObservePrediction(year, prediction int, elapsed time.Duration) {
	predictionsTotal.WithLabelValues(strconv.Itoa(year), strconv.Itoa(prediction)).Inc()
	requestDuration.Observe(elapsed.Seconds())
}

// ObserveFailure records a failed prediction by error kind.
func ObserveFailure(kind string, elapsed time.Duration) {
	failuresTotal.WithLabelValues(kind).Inc()
	requestDuration.Observe(elapsed.Seconds())
}
