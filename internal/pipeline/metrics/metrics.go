package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsScanned tracks rows scanned per pass
	RecordsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_records_scanned_total",
			Help: "Total number of records scanned by the change planner",
		},
	)

	// RecordOutcomes tracks per-record results by outcome category
	RecordOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_record_outcomes_total",
			Help: "Total number of records per pass outcome",
		},
		[]string{"outcome"},
	)

	// DecisionCalls tracks decision-maker calls per provider and result
	DecisionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_decision_calls_total",
			Help: "Total number of external classification calls",
		},
		[]string{"provider", "result"},
	)

	// DecisionLatency tracks decision-maker call latency
	DecisionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_decision_latency_seconds",
			Help:    "External classification call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// PassDuration tracks full pass duration
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "registry_pass_duration_seconds",
			Help:    "Duration of one full classification pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LastPassTimestamp tracks when the last pass finished
	LastPassTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_last_pass_timestamp_seconds",
			Help: "Unix timestamp of the last completed pass",
		},
	)

	// BackupsCreated tracks table backups taken before commits
	BackupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_backups_created_total",
			Help: "Total number of table backups taken",
		},
	)
)

// Outcome label values for RecordOutcomes.
const (
	OutcomeSkipped      = "skipped"
	OutcomeCommitted    = "committed"
	OutcomeUnresolvable = "unresolvable"
	OutcomeWriteFailed  = "write_failed"
	OutcomeInvalidDate  = "invalid_date"
)
