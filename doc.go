// Package pagesplit balances weighted items across a self-selected number
// of groups ("pages") so that the heaviest and the lightest group differ as
// little as possible.
//
// # Splitting
//
// The primary entry point is [Partition]:
//
//	pages, err := pagesplit.Partition(jobs, func(j Job) float64 {
//	    return j.Cost
//	}, 0, 8)
//
// For repeated use, or to tune logging, metrics and concurrency, build a
// [Splitter] with [New] and call [Splitter.Split], which also reports the
// winning group count, its deviation and every evaluated candidate:
//
//	s, err := pagesplit.New(func(j Job) float64 { return j.Cost },
//	    pagesplit.WithMaxGroups(8),
//	    pagesplit.WithRoundDeviationUpTo(0.5),
//	)
//	a, err := s.Split(ctx, jobs)
//	fmt.Println(a.K, a.Deviation, a.Groups)
//
// # Algorithm
//
// Every weight is computed once and the items are sorted heaviest first.
// For each group count k in 2..min(len(items), MaxGroups) a greedy
// longest-processing-time-first pass seeds k groups with the k heaviest
// items and appends every other item to the lightest group. The deviation
// (max group sum minus min group sum, raised to RoundDeviationUpTo when
// smaller) gives the score k/deviation. The highest score wins; among equal
// scores, the larger k wins.
//
// Candidates are evaluated concurrently with the fanout subpackage.
//
// With RoundDeviationUpTo set to zero, a perfectly balanced candidate scores
// +Inf and therefore beats every imperfect one.
//
// # Errors
//
//   - [*ConfigError] (wraps [ErrInvalidConfig]): MaxGroups below 2, a
//     negative or non-finite RoundDeviationUpTo, negative concurrency or a
//     nil weight function. Returned before any work starts.
//   - [*WeightError] (wraps [ErrInvalidWeight]): a weight was negative, NaN
//     or infinite. All offending items are reported through a
//     [*fanout.AggregateError].
//   - A panicking weight function surfaces as a [*fanout.PanicError].
//
// # Configuration
//
// [Config] carries the tuning parameters and can be loaded from YAML or
// TOML with [LoadConfig]. Pass it with [WithConfig].
//
// # Observability
//
// [WithLogger] accepts any [Logger]; the logging subpackage adapts zap.
// [WithMetrics] accepts any [MetricsCollector]; the metrics subpackage
// provides a Prometheus implementation.
package pagesplit
