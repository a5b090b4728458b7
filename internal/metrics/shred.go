package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Shred subsystem metrics
var (
	// DecisionsTotal counts every engine decision by label (shredded, skip: ...)
	DecisionsTotal *prometheus.CounterVec

	// EraseOutcomesTotal counts erase attempts by outcome
	EraseOutcomesTotal *prometheus.CounterVec

	// EraseDuration tracks how long the external utility ran
	EraseDuration prometheus.Histogram

	// BytesShreddedTotal tracks bytes of regular files successfully shredded
	BytesShreddedTotal prometheus.Counter

	// ResolveFailuresTotal counts calls that failed closed because the real
	// unlink could not be resolved
	ResolveFailuresTotal prometheus.Counter

	// UnlinkErrorsTotal counts real unlink calls that returned an error
	UnlinkErrorsTotal prometheus.Counter
)

// initShredMetrics initializes all shred subsystem metrics
func initShredMetrics() {
	DecisionsTotal = NewCounterVec(
		"unlinkshred_decisions_total",
		"Total number of shred decisions by decision.",
		[]string{"decision"},
	)

	EraseOutcomesTotal = NewCounterVec(
		"unlinkshred_erase_outcomes_total",
		"Total number of erase utility invocations by outcome.",
		[]string{"outcome"},
	)

	EraseDuration = NewDurationHistogram(
		"unlinkshred_erase_duration_seconds",
		"Duration of erase utility invocations in seconds.",
	)

	BytesShreddedTotal = NewBytesCounter(
		"unlinkshred_bytes_shredded_total",
		"Total bytes of file content overwritten before unlink.",
	)

	ResolveFailuresTotal = NewCounter(
		"unlinkshred_resolve_failures_total",
		"Total number of calls failed because the real unlink could not be resolved.",
	)

	UnlinkErrorsTotal = NewCounter(
		"unlinkshred_unlink_errors_total",
		"Total number of underlying unlink calls that returned an error.",
	)
}

// registerShredMetrics registers all shred metrics with Prometheus
func registerShredMetrics() {
	prometheus.MustRegister(DecisionsTotal)
	prometheus.MustRegister(EraseOutcomesTotal)
	prometheus.MustRegister(EraseDuration)
	prometheus.MustRegister(BytesShreddedTotal)
	prometheus.MustRegister(ResolveFailuresTotal)
	prometheus.MustRegister(UnlinkErrorsTotal)
}

// RecordDecision increments the decision counter.
func RecordDecision(decision string) {
	DecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordErase records one erase attempt; size is only counted on success.
func RecordErase(outcome string, d time.Duration, size int64) {
	EraseOutcomesTotal.WithLabelValues(outcome).Inc()
	EraseDuration.Observe(d.Seconds())
	if outcome == "succeeded" && size > 0 {
		BytesShreddedTotal.Add(float64(size))
	}
}
