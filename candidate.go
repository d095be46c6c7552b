package pagesplit

import (
	"container/heap"
	"slices"
)

type weighted[T any] struct {
	item   T
	weight float64
}

// Candidate summarizes the assignment computed for one group count.
type Candidate struct {
	K         int     // number of groups
	Deviation float64 // max group sum minus min group sum, never below the configured floor
	Score     float64 // K / Deviation; +Inf for a zero deviation
}

// better reports whether c beats best: higher score first, then more groups.
// Scores are compared exactly.
func (c Candidate) better(best Candidate) bool {
	if c.Score != best.Score {
		return c.Score > best.Score
	}
	return c.K > best.K
}

type evaluation[T any] struct {
	Candidate
	groups [][]weighted[T]
	sums   []float64
}

// groupLoad orders groups by running sum, then by index, so the heap root
// is always the lightest group with the lowest index.
type groupLoad struct {
	index int
	sum   float64
}

type loadHeap []groupLoad

func (h loadHeap) Len() int { return len(h) }
func (h loadHeap) Less(i, j int) bool {
	if h[i].sum != h[j].sum {
		return h[i].sum < h[j].sum
	}
	return h[i].index < h[j].index
}
func (h loadHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *loadHeap) Push(x any) { *h = append(*h, x.(groupLoad)) }

func (h *loadHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// evaluate runs longest-processing-time-first over sorted (heaviest first)
// for k groups. sorted is only read.
func evaluate[T any](sorted []weighted[T], k int, floor float64) *evaluation[T] {
	groups := make([][]weighted[T], k)
	loads := make(loadHeap, k)
	for i := range k {
		groups[i] = []weighted[T]{sorted[i]}
		loads[i] = groupLoad{index: i, sum: sorted[i].weight}
	}
	heap.Init(&loads)

	for _, w := range sorted[k:] {
		lightest := &loads[0]
		groups[lightest.index] = append(groups[lightest.index], w)
		lightest.sum += w.weight
		heap.Fix(&loads, 0)
	}

	sums := make([]float64, k)
	for _, l := range loads {
		sums[l.index] = l.sum
	}

	dev := deviation(sums, floor)
	return &evaluation[T]{
		Candidate: Candidate{K: k, Deviation: dev, Score: score(k, dev)},
		groups:    groups,
		sums:      sums,
	}
}

func deviation(sums []float64, floor float64) float64 {
	if len(sums) == 0 {
		return floor
	}
	return max(slices.Max(sums)-slices.Min(sums), floor)
}

func score(k int, deviation float64) float64 {
	return float64(k) / deviation
}

// searchSpace lists the group counts evaluated for n items.
func searchSpace(n, maxGroups int) []int {
	hi := min(n, maxGroups)
	if hi < 2 {
		return nil
	}
	ks := make([]int, 0, hi-1)
	for k := 2; k <= hi; k++ {
		ks = append(ks, k)
	}
	return ks
}
