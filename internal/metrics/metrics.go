// Package metrics holds the Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gigbook"

var (
	// InboundMessages counts pipeline runs by channel and outcome
	InboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "number of inbound messages processed",
		},
		[]string{"channel", "outcome"},
	)
	// Extractions counts extraction results by source
	Extractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_total",
			Help:      "number of extraction results used by the quality gate",
		},
		[]string{"source"},
	)
	// ReviewWriteFailures counts review records that could not be stored
	ReviewWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_write_failures_total",
			Help:      "number of review messages lost to store failures",
		},
	)
	// PipelineDuration observes end-to-end run time
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "time taken to process one inbound message",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)
	// GuardWait observes time spent waiting for the creation guard
	GuardWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "guard_wait_seconds",
			Help:      "time spent waiting to enter the extraction and creation section",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
)

// ObserveGuardWait records a guard wait. It matches the guard's onWait hook.
func ObserveGuardWait(d time.Duration) {
	GuardWait.Observe(d.Seconds())
}
