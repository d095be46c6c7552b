package pagesplit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/pagesplit/fanout"
)

type job struct {
	ID   string
	Cost float64
}

func costOf(j job) float64 { return j.Cost }

func jobs(costs ...float64) []job {
	out := make([]job, len(costs))
	for i, c := range costs {
		out[i] = job{ID: fmt.Sprintf("job-%02d", i), Cost: c}
	}
	return out
}

func randomJobs(r *rand.Rand, n int) []job {
	costs := make([]float64, n)
	for i := range costs {
		costs[i] = math.Round(r.Float64()*1000) / 10
	}
	return jobs(costs...)
}

func ids(groups [][]job) []string {
	var out []string
	for _, g := range groups {
		for _, j := range g {
			out = append(out, j.ID)
		}
	}
	slices.Sort(out)
	return out
}

func mustSplit(t *testing.T, items []job, opts ...Option) *Assignment[job] {
	t.Helper()
	s, err := New(costOf, opts...)
	require.NoError(t, err)
	a, err := s.Split(context.Background(), items)
	require.NoError(t, err)
	return a
}

func TestPartitionEqualWeights(t *testing.T) {
	items := jobs(10, 10, 10, 10)

	groups, err := Partition(items, costOf, 0, 4)
	require.NoError(t, err)
	require.Len(t, groups, 4)
	for _, g := range groups {
		assert.Len(t, g, 1)
	}

	a := mustSplit(t, items, WithMaxGroups(4))
	assert.Equal(t, 4, a.K)
	assert.Equal(t, 0.0, a.Deviation)
	assert.True(t, math.IsInf(a.Score, 1), "zero deviation with no floor scores +Inf")

	require.Len(t, a.Candidates, 3)
	assert.Equal(t, Candidate{K: 2, Deviation: 0, Score: math.Inf(1)}, a.Candidates[0])
	assert.Equal(t, Candidate{K: 3, Deviation: 10, Score: 0.3}, a.Candidates[1])
	assert.Equal(t, 4, a.Candidates[2].K)
}

func TestPartitionEqualWeightsWithFloor(t *testing.T) {
	a := mustSplit(t, jobs(10, 10, 10, 10), WithMaxGroups(4), WithRoundDeviationUpTo(1))

	assert.Equal(t, 4, a.K)
	assert.Equal(t, 1.0, a.Deviation)
	assert.Equal(t, 4.0, a.Score)
	assert.Equal(t, 2.0, a.Candidates[0].Score)
}

func TestPartitionHeavyItemStaysAlone(t *testing.T) {
	items := jobs(100, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	a := mustSplit(t, items, WithMaxGroups(4))
	require.Equal(t, 4, a.K)
	assert.Equal(t, []job{items[0]}, a.Groups[0], "the heavy item must be alone")
	for _, g := range a.Groups[1:] {
		assert.Len(t, g, 3)
	}
	assert.Equal(t, []float64{100, 3, 3, 3}, a.Sums)

	devs := make([]float64, 0, len(a.Candidates))
	for _, c := range a.Candidates {
		devs = append(devs, c.Deviation)
	}
	assert.Equal(t, []float64{91, 96, 97}, devs)

	a = mustSplit(t, items, WithMaxGroups(2))
	require.Equal(t, 2, a.K)
	assert.Equal(t, []job{items[0]}, a.Groups[0])
	assert.Len(t, a.Groups[1], 9)
}

func TestPartitionEqualWeightsKeepInputOrder(t *testing.T) {
	items := jobs(5, 5, 5, 5)

	groups, err := Partition(items, costOf, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]job{
		{items[0], items[2]},
		{items[1], items[3]},
	}, groups)
}

func TestPartitionTrivialInputs(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		groups, err := Partition([]job{}, costOf, 0, 4)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Empty(t, groups[0])
	})

	t.Run("single item", func(t *testing.T) {
		items := jobs(42)
		a := mustSplit(t, items)
		assert.Equal(t, [][]job{items}, a.Groups)
		assert.Equal(t, 1, a.K)
		assert.Equal(t, []float64{42}, a.Sums)
		assert.Empty(t, a.Candidates)
	})

	t.Run("single item is still weighed", func(t *testing.T) {
		_, err := Partition(jobs(-1), costOf, 0, 4)
		assert.ErrorIs(t, err, ErrInvalidWeight)
	})
}

func TestPartitionCoversInputExactlyOnce(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for _, n := range []int{2, 3, 7, 25, 120} {
		for _, maxGroups := range []int{2, 5, 16} {
			t.Run(fmt.Sprintf("n=%d/max=%d", n, maxGroups), func(t *testing.T) {
				items := randomJobs(r, n)
				a := mustSplit(t, items, WithMaxGroups(maxGroups))

				assert.Equal(t, ids([][]job{items}), ids(a.Groups), "no loss, no duplication")
				assert.Len(t, a.Groups, a.K)
				assert.GreaterOrEqual(t, a.K, 2)
				assert.LessOrEqual(t, a.K, min(n, maxGroups))
				assert.Len(t, a.Candidates, min(n, maxGroups)-1)

				for i, g := range a.Groups {
					var sum float64
					for _, j := range g {
						sum += j.Cost
					}
					assert.InDelta(t, sum, a.Sums[i], 1e-9)
					for j := 1; j < len(g); j++ {
						assert.GreaterOrEqual(t, g[j-1].Cost, g[j].Cost, "group %d should hold items heaviest first", i)
					}
				}
			})
		}
	}
}

func TestPartitionTiedWeightsBalanceGroupSizes(t *testing.T) {
	for n := 2; n <= 30; n++ {
		costs := make([]float64, n)
		for i := range costs {
			costs[i] = 3
		}

		groups, err := Partition(jobs(costs...), costOf, 0, 7)
		require.NoError(t, err)

		lo, hi := n, 0
		for _, g := range groups {
			lo = min(lo, len(g))
			hi = max(hi, len(g))
		}
		assert.LessOrEqual(t, hi-lo, 1, "n=%d: group sizes differ by more than one", n)
	}
}

func TestPartitionDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	items := randomJobs(r, 300)

	want := mustSplit(t, items, WithMaxGroups(12), WithRoundDeviationUpTo(0.5))
	for _, opts := range [][]Option{
		{WithConcurrency(1)},
		{WithConcurrency(3)},
		{},
		{WithDetachedContext()},
	} {
		opts := append([]Option{WithMaxGroups(12), WithRoundDeviationUpTo(0.5)}, opts...)
		for range 3 {
			got := mustSplit(t, items, opts...)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("Split() mismatch (-want +got):\n%s", diff)
			}
		}
	}
}

func TestPartitionDeviationNeverBelowFloor(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))

	for _, floor := range []float64{0, 0.5, 2.5, 1000} {
		a := mustSplit(t, randomJobs(r, 40), WithMaxGroups(10), WithRoundDeviationUpTo(floor))
		assert.GreaterOrEqual(t, a.Deviation, floor)
		for _, c := range a.Candidates {
			assert.GreaterOrEqual(t, c.Deviation, floor, "k=%d", c.K)
			assert.Equal(t, float64(c.K)/c.Deviation, c.Score)
		}
	}
}

func TestPartitionLargeFloorPrefersMostGroups(t *testing.T) {
	// Every deviation is floored to the same value, so the score grows
	// with k and the largest k wins.
	a := mustSplit(t, jobs(9, 8, 7, 6, 5, 4, 3), WithMaxGroups(5), WithRoundDeviationUpTo(1e6))
	assert.Equal(t, 5, a.K)
}

func TestPartitionDoesNotModifyInput(t *testing.T) {
	items := jobs(1, 9, 3, 7, 5)
	before := slices.Clone(items)

	_, err := Partition(items, costOf, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, before, items)
}

func TestPartitionWeighsEachItemOnce(t *testing.T) {
	var calls atomic.Int32
	items := jobs(4, 3, 2, 1, 9, 8, 7)

	_, err := Partition(items, func(j job) float64 {
		calls.Add(1)
		return j.Cost
	}, 0, 6)
	require.NoError(t, err)
	assert.Equal(t, int32(len(items)), calls.Load())
}

func TestPartitionInvalidWeights(t *testing.T) {
	tests := []struct {
		name string
		bad  float64
	}{
		{"negative", -1},
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := jobs(1, 2, tt.bad, 4)
			_, err := Partition(items, costOf, 0, 4)

			require.ErrorIs(t, err, ErrInvalidWeight)
			var we *WeightError
			require.ErrorAs(t, err, &we)
			assert.Equal(t, 2, we.Index)
			assert.Equal(t, items[2].ID, we.Item.(job).ID)
		})
	}
}

func TestPartitionReportsEveryInvalidWeight(t *testing.T) {
	_, err := Partition(jobs(-1, 2, -3, 4, -5), costOf, 0, 4)
	require.Error(t, err)

	all := fanout.AllItemErrors(err)
	require.Len(t, all, 3)
	for i, want := range []int{0, 2, 4} {
		assert.Equal(t, want, all[i].Index)
	}
}

func TestSplitReportsInvalidWeightsBeyondConcurrency(t *testing.T) {
	items := jobs(-1, -2, -3, -4, 5)

	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			s, err := New(costOf, WithConcurrency(concurrency))
			require.NoError(t, err)

			_, err = s.Split(context.Background(), items)
			require.ErrorIs(t, err, ErrInvalidWeight)

			all := fanout.AllItemErrors(err)
			require.Len(t, all, 4)
			for i, ie := range all {
				assert.Equal(t, i, ie.Index)

				var we *WeightError
				require.ErrorAs(t, ie, &we)
				assert.Equal(t, -float64(i+1), we.Weight)
			}
		})
	}
}

func TestSplitMergesInvalidWeightsWithPanics(t *testing.T) {
	s, err := New(func(j job) float64 {
		if j.Cost == 3 {
			panic("no weight for 3")
		}
		return j.Cost
	}, WithConcurrency(2))
	require.NoError(t, err)

	_, err = s.Split(context.Background(), jobs(-1, 2, 3, -4))
	require.Error(t, err)

	all := fanout.AllItemErrors(err)
	require.Len(t, all, 3)
	assert.Equal(t, 0, all[0].Index)
	assert.Equal(t, 2, all[1].Index)
	assert.Equal(t, 3, all[2].Index)

	var pe *fanout.PanicError
	require.ErrorAs(t, all[1], &pe)
	assert.Equal(t, "no weight for 3", pe.Value)
}

func TestPartitionWeightFunctionPanics(t *testing.T) {
	_, err := Partition(jobs(1, 2, 3), func(j job) float64 {
		if j.Cost == 2 {
			panic("no weight for 2")
		}
		return j.Cost
	}, 0, 3)

	var pe *fanout.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "no weight for 2", pe.Value)
}

func TestPartitionInvalidConfiguration(t *testing.T) {
	var calls atomic.Int32
	weigh := func(j job) float64 {
		calls.Add(1)
		return j.Cost
	}

	tests := []struct {
		name      string
		floor     float64
		maxGroups int
		field     string
	}{
		{"max groups below two", 0, 1, "maxGroups"},
		{"zero max groups", 0, 0, "maxGroups"},
		{"negative floor", -0.1, 4, "roundDeviationUpTo"},
		{"NaN floor", math.NaN(), 4, "roundDeviationUpTo"},
		{"infinite floor", math.Inf(1), 4, "roundDeviationUpTo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Partition(jobs(1, 2, 3), weigh, tt.floor, tt.maxGroups)
			require.ErrorIs(t, err, ErrInvalidConfig)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
	assert.Equal(t, int32(0), calls.Load(), "no work may start on invalid configuration")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New[job](nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(costOf, WithConcurrency(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(costOf, WithConfig(Config{MaxGroups: 1}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := New(costOf, WithConfig(Config{MaxGroups: 1}), WithMaxGroups(3))
	require.NoError(t, err, "later options apply on top of WithConfig")
	assert.Equal(t, 3, s.opts.MaxGroups)
}

func TestSplitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(costOf)
	require.NoError(t, err)

	_, err = s.Split(ctx, jobs(1, 2, 3, 4, 5))
	assert.ErrorIs(t, err, context.Canceled)
}

type recorder struct {
	mu         sync.Mutex
	splits     []int
	candidates []int
	failures   []string
	debug      int
	warn       int
}

func (r *recorder) RecordSplit(items, groups int, deviation float64, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.splits = append(r.splits, groups)
}

func (r *recorder) RecordCandidate(groups int, deviation, score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = append(r.candidates, groups)
}

func (r *recorder) RecordFailure(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

func (r *recorder) Debug(string, ...any) { r.mu.Lock(); r.debug++; r.mu.Unlock() }
func (r *recorder) Info(string, ...any)  {}
func (r *recorder) Warn(string, ...any)  { r.mu.Lock(); r.warn++; r.mu.Unlock() }
func (r *recorder) Error(string, ...any) {}

func TestSplitObservability(t *testing.T) {
	rec := &recorder{}
	s, err := New(costOf, WithMaxGroups(5), WithMetrics(rec), WithLogger(rec))
	require.NoError(t, err)

	a, err := s.Split(context.Background(), jobs(5, 4, 3, 2, 1, 1, 1))
	require.NoError(t, err)

	slices.Sort(rec.candidates)
	assert.Equal(t, []int{2, 3, 4, 5}, rec.candidates)
	assert.Equal(t, []int{a.K}, rec.splits)
	assert.Empty(t, rec.failures)
	assert.Equal(t, 5, rec.debug, "one line per candidate plus the selection")

	_, err = s.Split(context.Background(), jobs(1, -2))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Split(ctx, jobs(1, 2, 3))
	require.Error(t, err)

	assert.Equal(t, []string{FailureWeight, FailureCanceled}, rec.failures)
	assert.Equal(t, 2, rec.warn)
}

func TestNilLoggerAndMetricsAreIgnored(t *testing.T) {
	a := mustSplit(t, jobs(3, 2, 1), WithLogger(nil), WithMetrics(nil))
	assert.Equal(t, ids([][]job{jobs(3, 2, 1)}), ids(a.Groups))
}

func TestWeightErrorMessage(t *testing.T) {
	err := &WeightError{Index: 3, Item: "x", Weight: -2}
	assert.Equal(t, "pagesplit: invalid weight: item 3 (x) weighs -2", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidWeight))
}
