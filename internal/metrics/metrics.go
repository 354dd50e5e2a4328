// Package metrics holds the Prometheus collectors of the serving processes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_predictions_total",
		Help: "Predictions served, by favoured outcome",
	}, []string{"outcome"})

	PredictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_prediction_errors_total",
		Help: "Prediction requests that failed, by reason",
	}, []string{"reason"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_llm_requests_total",
		Help: "Language model calls, by status",
	}, []string{"status"})

	LLMDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scout_llm_duration_seconds",
		Help:    "Duration of language model calls including retries",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	ReportCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_report_cache_total",
		Help: "Report cache lookups, by result",
	}, []string{"result"})
)
