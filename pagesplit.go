package pagesplit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/baxromumarov/pagesplit/fanout"
)

// WeightFunc returns the weight of an item. It must be safe for concurrent
// use and return a finite, non-negative number for every item.
type WeightFunc[T any] func(item T) float64

// Assignment is the winning partition of one [Splitter.Split] call.
type Assignment[T any] struct {
	// Candidate describes the winner. K is 1 for inputs with fewer than
	// two items.
	Candidate

	// Groups holds exactly K groups. Every input item appears in exactly
	// one group; within a group items keep the order they were added in,
	// heaviest first.
	Groups [][]T

	// Sums holds the total weight of each group, index-aligned with Groups.
	Sums []float64

	// Candidates lists every evaluated group count in ascending K.
	// It is empty for inputs with fewer than two items.
	Candidates []Candidate
}

// Splitter balances weighted items across a self-selected number of groups.
// A Splitter is immutable and safe for concurrent use.
type Splitter[T any] struct {
	weightOf WeightFunc[T]
	opts     options
}

// New returns a Splitter using weightOf. It returns a [*ConfigError] if
// weightOf is nil or the options are invalid.
func New[T any](weightOf WeightFunc[T], opts ...Option) (*Splitter[T], error) {
	if weightOf == nil {
		return nil, &ConfigError{Field: "weightOf", Reason: "must not be nil"}
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	return &Splitter[T]{weightOf: weightOf, opts: o}, nil
}

// Partition splits items into the group count in 2..maxGroups whose
// greedy assignment scores best, and returns the groups.
//
// Partition is shorthand for [New] followed by [Splitter.Split] with a
// background context.
//
//	pages, err := pagesplit.Partition(files, func(f File) float64 {
//	    return float64(f.Size)
//	}, 0, 8)
func Partition[T any](
	items []T,
	weightOf func(T) float64,
	roundDeviationUpTo float64,
	maxGroups int,
) ([][]T, error) {
	s, err := New(WeightFunc[T](weightOf),
		WithRoundDeviationUpTo(roundDeviationUpTo),
		WithMaxGroups(maxGroups),
	)
	if err != nil {
		return nil, err
	}

	a, err := s.Split(context.Background(), items)
	if err != nil {
		return nil, err
	}
	return a.Groups, nil
}

// Split weighs every item once, evaluates each group count k in
// 2..min(len(items), MaxGroups) concurrently, and returns the assignment
// with the highest score k/deviation. Equal scores go to the larger k.
//
// Each candidate seeds k groups with the k heaviest items and then adds
// every remaining item, heaviest first, to the currently lightest group
// (lowest index on ties).
//
// Inputs with fewer than two items yield a single group holding them.
//
// Split returns an error wrapping [ErrInvalidWeight] if any weight is
// negative or not finite; every offending item is reported. It returns the
// context's error if ctx ends before the work is done.
func (s *Splitter[T]) Split(ctx context.Context, items []T) (*Assignment[T], error) {
	start := time.Now()

	sorted, err := s.weigh(ctx, items)
	if err != nil {
		return nil, s.fail(err, FailureWeight)
	}

	floor := s.opts.RoundDeviationUpTo
	if len(sorted) < 2 {
		a := trivial(items, sorted, floor)
		s.succeed(len(items), a, start)
		return a, nil
	}

	ks := searchSpace(len(sorted), s.opts.MaxGroups)
	results := xsync.NewMap[int, *evaluation[T]]()

	err = fanout.ForEach(ctx, ks, func(_ context.Context, k int) error {
		ev := evaluate(sorted, k, floor)
		results.Store(k, ev)

		s.opts.metrics.RecordCandidate(k, ev.Deviation, ev.Score)
		s.opts.logger.Debug("candidate evaluated",
			"groups", k,
			"deviation", ev.Deviation,
			"score", ev.Score,
		)
		return nil
	}, s.fanoutOptions()...)
	if err != nil {
		return nil, s.fail(fmt.Errorf("evaluating candidates: %w", err), FailureCandidate)
	}

	a := selectBest(ks, results)
	s.succeed(len(items), a, start)
	return a, nil
}

// weigh computes every weight once, one slot per item, and returns the items
// sorted heaviest first. Items of equal weight keep their input order.
func (s *Splitter[T]) weigh(ctx context.Context, items []T) ([]weighted[T], error) {
	out := make([]weighted[T], len(items))
	positions := make([]int, len(items))
	for i := range positions {
		positions[i] = i
	}

	// Invalid weights go to their own slot instead of failing the action,
	// so no cursor stops early and every one of them is reported.
	invalid := make([]*fanout.ItemError, len(items))
	err := fanout.ForEach(ctx, positions, func(ctx context.Context, i int) error {
		w := s.weightOf(items[i])
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			cursor, _ := fanout.CursorFrom(ctx)
			invalid[i] = &fanout.ItemError{
				Cursor: cursor,
				Index:  i,
				Err:    &WeightError{Index: i, Item: items[i], Weight: w},
			}
			return nil
		}
		out[i] = weighted[T]{item: items[i], weight: w}
		return nil
	}, s.fanoutOptions()...)
	if err = mergeItemErrors(err, invalid); err != nil {
		return nil, fmt.Errorf("computing weights: %w", err)
	}

	slices.SortStableFunc(out, func(a, b weighted[T]) int {
		return cmp.Compare(b.weight, a.weight)
	})
	return out, nil
}

// mergeItemErrors folds the non-nil entries of extra into the failures of a
// ForEach result, ordered by item index. Errors other than an
// [*fanout.AggregateError], such as cancellation, are returned unchanged.
func mergeItemErrors(err error, extra []*fanout.ItemError) error {
	var agg *fanout.AggregateError
	if err != nil && !errors.As(err, &agg) {
		return err
	}

	var errs []*fanout.ItemError
	if agg != nil {
		errs = append(errs, agg.Errs...)
	}
	for _, ie := range extra {
		if ie != nil {
			errs = append(errs, ie)
		}
	}
	if len(errs) == 0 {
		return nil
	}

	slices.SortFunc(errs, func(a, b *fanout.ItemError) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return &fanout.AggregateError{Errs: errs}
}

func (s *Splitter[T]) fanoutOptions() []fanout.Option {
	opts := []fanout.Option{fanout.WithDegree(s.opts.Concurrency)}
	if s.opts.DetachContext {
		opts = append(opts, fanout.WithDetachedContext())
	}
	return opts
}

func (s *Splitter[T]) succeed(n int, a *Assignment[T], start time.Time) {
	elapsed := time.Since(start)
	s.opts.metrics.RecordSplit(n, a.K, a.Deviation, elapsed)
	s.opts.logger.Debug("split selected",
		"items", n,
		"groups", a.K,
		"deviation", a.Deviation,
		"score", a.Score,
		"candidates", len(a.Candidates),
		"elapsed", elapsed,
	)
}

func (s *Splitter[T]) fail(err error, reason string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		reason = FailureCanceled
	}
	s.opts.metrics.RecordFailure(reason)
	s.opts.logger.Warn("split failed", "reason", reason, "error", err)
	return err
}

func trivial[T any](items []T, sorted []weighted[T], floor float64) *Assignment[T] {
	var sum float64
	for _, w := range sorted {
		sum += w.weight
	}
	dev := deviation([]float64{sum}, floor)

	group := make([]T, len(items))
	copy(group, items)

	return &Assignment[T]{
		Candidate: Candidate{K: 1, Deviation: dev, Score: score(1, dev)},
		Groups:    [][]T{group},
		Sums:      []float64{sum},
	}
}

func selectBest[T any](ks []int, results *xsync.Map[int, *evaluation[T]]) *Assignment[T] {
	var best *evaluation[T]
	candidates := make([]Candidate, 0, len(ks))
	for _, k := range ks {
		ev, ok := results.Load(k)
		if !ok {
			continue
		}
		candidates = append(candidates, ev.Candidate)
		if best == nil || ev.better(best.Candidate) {
			best = ev
		}
	}

	groups := make([][]T, len(best.groups))
	for i, g := range best.groups {
		groups[i] = make([]T, len(g))
		for j, w := range g {
			groups[i][j] = w.item
		}
	}

	return &Assignment[T]{
		Candidate:  best.Candidate,
		Groups:     groups,
		Sums:       best.sums,
		Candidates: candidates,
	}
}
