// Package metrics exposes Prometheus collectors for the normalizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Record metrics
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdm_normalizer_records_total",
			Help: "Total number of records normalized, by formatter type",
		},
		[]string{"formatter"},
	)

	RecordsEmptied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cdm_normalizer_records_emptied_total",
			Help: "Total number of records left with no fields after pruning",
		},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cdm_normalizer_processing_duration_seconds",
			Help:    "Duration of record normalization in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Index name metrics
	IndexNameOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdm_normalizer_index_name_total",
			Help: "Index name resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// Intake metrics
	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdm_normalizer_decode_errors_total",
			Help: "Total number of envelopes that could not be decoded",
		},
		[]string{"source"},
	)

	// Sink metrics
	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdm_normalizer_sink_writes_total",
			Help: "Records handed to the output sink, by sink and status",
		},
		[]string{"sink", "status"},
	)

	DLQWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdm_normalizer_dlq_writes_total",
			Help: "Entries written to the dead letter queue, by reason",
		},
		[]string{"reason"},
	)
)

// Label values for FormatterLabel when no rule matched.
const NoFormatter = "none"

// FormatterLabel maps an empty formatter type to NoFormatter.
func FormatterLabel(t string) string {
	if t == "" {
		return NoFormatter
	}
	return t
}
