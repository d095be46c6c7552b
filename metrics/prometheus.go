package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/baxromumarov/pagesplit"
)

// PrometheusCollector implements pagesplit.MetricsCollector backed by Prometheus.
//
// Metrics are registered with the registerer on first use, so creating a
// collector that is never used leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	splits             prometheus.Counter
	splitDuration      prometheus.Histogram
	splitItems         prometheus.Histogram
	selectedGroups     prometheus.Histogram
	selectedDeviation  prometheus.Histogram
	candidates         prometheus.Counter
	candidateDeviation *prometheus.HistogramVec
	failures           *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ pagesplit.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "pagesplit" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "pagesplit"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.splits = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "split",
			Name:      "total",
			Help:      "Total successful splits.",
		})
		p.splitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "split",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of successful splits in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs .. ~26s
		})
		p.splitItems = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "split",
			Name:      "items",
			Help:      "Number of items per split.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		})
		p.selectedGroups = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "split",
			Name:      "selected_groups",
			Help:      "Group count of the winning candidate.",
			Buckets:   prometheus.LinearBuckets(1, 1, 16),
		})
		p.selectedDeviation = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "split",
			Name:      "selected_deviation",
			Help:      "Deviation of the winning candidate.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 10, 8),
		})

		p.candidates = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "candidate",
			Name:      "evaluations_total",
			Help:      "Total candidate group counts evaluated.",
		})
		p.candidateDeviation = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "candidate",
			Name:      "deviation",
			Help:      "Deviation of evaluated candidates by perfect (zero deviation) or not.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 10, 8),
		}, []string{"perfect"})

		p.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "split",
			Name:      "failures_total",
			Help:      "Total failed splits by reason (weight, candidate, canceled).",
		}, []string{"reason"})

		p.reg.MustRegister(p.splits)
		p.reg.MustRegister(p.splitDuration)
		p.reg.MustRegister(p.splitItems)
		p.reg.MustRegister(p.selectedGroups)
		p.reg.MustRegister(p.selectedDeviation)
		p.reg.MustRegister(p.candidates)
		p.reg.MustRegister(p.candidateDeviation)
		p.reg.MustRegister(p.failures)
	})
}

// RecordSplit records a successful split.
func (p *PrometheusCollector) RecordSplit(items, groups int, deviation float64, elapsed time.Duration) {
	p.ensureRegistered()
	p.splits.Inc()
	p.splitDuration.Observe(elapsed.Seconds())
	p.splitItems.Observe(float64(items))
	p.selectedGroups.Observe(float64(groups))
	p.selectedDeviation.Observe(deviation)
}

// RecordCandidate records one evaluated group count.
func (p *PrometheusCollector) RecordCandidate(_ /* groups */ int, deviation, _ /* score */ float64) {
	p.ensureRegistered()
	p.candidates.Inc()

	perfect := "false"
	if deviation == 0 {
		perfect = "true"
	}
	p.candidateDeviation.WithLabelValues(perfect).Observe(deviation)
}

// RecordFailure records a failed split.
func (p *PrometheusCollector) RecordFailure(reason string) {
	p.ensureRegistered()
	p.failures.WithLabelValues(reason).Inc()
}
