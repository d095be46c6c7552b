// Package metrics provides [pagesplit.MetricsCollector] implementations.
package metrics

import (
	"time"

	"github.com/baxromumarov/pagesplit"
)

// NopMetrics discards all measurements.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ pagesplit.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordSplit discards the split measurement.
func (n *NopMetrics) RecordSplit(_ /* items */, _ /* groups */ int, _ /* deviation */ float64, _ /* elapsed */ time.Duration) {
}

// RecordCandidate discards the candidate measurement.
func (n *NopMetrics) RecordCandidate(_ /* groups */ int, _ /* deviation */, _ /* score */ float64) {}

// RecordFailure discards the failure.
func (n *NopMetrics) RecordFailure(_ /* reason */ string) {}
