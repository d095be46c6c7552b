package pagesplit

import "time"

// Failure reasons passed to [MetricsCollector.RecordFailure].
const (
	FailureWeight    = "weight"
	FailureCandidate = "candidate"
	FailureCanceled  = "canceled"
)

// MetricsCollector receives measurements from [Splitter]. Implementations
// must be safe for concurrent use. See the metrics subpackage for a
// Prometheus-backed collector.
type MetricsCollector interface {
	// RecordSplit is called once per successful split.
	RecordSplit(items, groups int, deviation float64, elapsed time.Duration)

	// RecordCandidate is called once per evaluated group count.
	RecordCandidate(groups int, deviation, score float64)

	// RecordFailure is called once per failed split with one of the
	// Failure* reasons.
	RecordFailure(reason string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSplit(int, int, float64, time.Duration) {}
func (nopMetrics) RecordCandidate(int, float64, float64)        {}
func (nopMetrics) RecordFailure(string)                         {}
