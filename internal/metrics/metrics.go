// Package metrics exposes the Prometheus instrumentation for the submit
// path: submit counts by outcome, match latency, audit append latency,
// and admission-lock rejections, registered directly via promauto against
// a small, fixed set of package-level vectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vatix",
		Name:      "submits_total",
		Help:      "Order submits processed, by outcome (accepted, validation_error, rate_limited, internal_error, audit_failure, signing_failure).",
	}, []string{"outcome"})

	MatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vatix",
		Name:      "match_duration_seconds",
		Help:      "MatchingEngine.Match wall-clock duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"market_id", "outcome"})

	AuditAppendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vatix",
		Name:      "audit_append_duration_seconds",
		Help:      "AuditLog.Append wall-clock duration.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"stream"})

	AdmissionLockRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vatix",
		Name:      "admission_lock_rejections_total",
		Help:      "Submits rejected because the admission lock was already held.",
	}, []string{"market_id"})
)

// TimeCounter records a start time and, on Observe, reports the elapsed
// duration to a histogram vector.
type TimeCounter struct {
	hist        *prometheus.HistogramVec
	labelValues []string
	start       time.Time
}

func NewTimeCounter(hist *prometheus.HistogramVec, labelValues ...string) *TimeCounter {
	return &TimeCounter{hist: hist, labelValues: labelValues, start: time.Now()}
}

func (t *TimeCounter) Observe() {
	t.hist.WithLabelValues(t.labelValues...).Observe(time.Since(t.start).Seconds())
}
