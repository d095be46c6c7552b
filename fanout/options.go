package fanout

import (
	"runtime"
	"time"
)

// CursorInfo identifies one cursor of a [ForEach] call.
// It is passed to observability hooks registered via [WithOnStart] and [WithOnDone].
type CursorInfo struct {
	ID int // 0-based, unique within one ForEach call
}

// CursorStats summarizes the work done by one cursor.
type CursorStats struct {
	Processed int           // items the action ran for, including a failed one
	Err       error         // failure that stopped the cursor, nil otherwise
	Duration  time.Duration // wall-clock lifetime of the cursor
}

type config struct {
	degree  int
	detach  bool
	onStart func(CursorInfo)
	onDone  func(CursorInfo, CursorStats)
}

// Option configures a [ForEach] call.
type Option func(*config)

func defaultConfig() config {
	return config{}
}

// workers returns the number of cursors to launch for n items.
func (c config) workers(n int) int {
	d := c.degree
	if d <= 0 {
		d = DefaultDegree()
	}
	return min(d, n)
}

// DefaultDegree returns the degree of concurrency used when none is
// requested: the number of CPUs usable by the current process.
func DefaultDegree() int {
	return runtime.GOMAXPROCS(0)
}

// WithDegree sets the maximum number of cursors, and therefore goroutines,
// used by a single call. The value is always clamped to the item count.
//
// A degree of zero or below selects [DefaultDegree].
func WithDegree(d int) Option {
	return func(c *config) {
		c.degree = d
	}
}

// WithDetachedContext runs the cursors on a fresh context that follows the
// caller's cancellation but carries none of its values. Use it when
// request-scoped values must not reach the workers.
func WithDetachedContext() Option {
	return func(c *config) {
		c.detach = true
	}
}

// WithOnStart registers a hook invoked when each cursor begins.
// The hook runs inside the cursor's goroutine before the first item.
func WithOnStart(fn func(CursorInfo)) Option {
	return func(c *config) {
		c.onStart = fn
	}
}

// WithOnDone registers a hook invoked when each cursor finishes.
// The hook runs inside the cursor's goroutine after its last item.
func WithOnDone(fn func(CursorInfo, CursorStats)) Option {
	return func(c *config) {
		c.onDone = fn
	}
}
