package pagesplit

import "math"

// Defaults applied by [DefaultConfig].
const (
	DefaultMaxGroups          = 16
	DefaultRoundDeviationUpTo = 0
)

type options struct {
	Config
	logger  Logger
	metrics MetricsCollector
}

// Option configures a [Splitter].
type Option func(*options)

func defaultOptions() options {
	return options{
		Config:  DefaultConfig(),
		logger:  nopLogger{},
		metrics: nopMetrics{},
	}
}

// WithConfig replaces every tuning parameter with the values in cfg.
// Options given after it still apply on top.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.Config = cfg
	}
}

// WithRoundDeviationUpTo sets the floor applied to every candidate's
// deviation before scoring. Must be finite and non-negative.
func WithRoundDeviationUpTo(v float64) Option {
	return func(o *options) {
		o.RoundDeviationUpTo = v
	}
}

// WithMaxGroups sets the largest group count evaluated. Must be at least 2.
func WithMaxGroups(n int) Option {
	return func(o *options) {
		o.MaxGroups = n
	}
}

// WithConcurrency bounds the goroutines used to compute weights and
// evaluate candidates. Zero selects the host's parallelism.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.Concurrency = n
	}
}

// WithDetachedContext keeps the caller's context values away from the
// weight function and from candidate evaluation. Cancellation still
// propagates.
func WithDetachedContext() Option {
	return func(o *options) {
		o.DetachContext = true
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l == nil {
			l = nopLogger{}
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector. A nil collector disables metrics.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = nopMetrics{}
		}
		o.metrics = m
	}
}

func validFloor(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
