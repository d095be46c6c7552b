// Package fanout runs an action over every element of a slice on a bounded
// number of concurrent cursors and waits for all of them.
//
// # Cursors
//
// [ForEach] launches min(degree, len(items)) goroutines. Every goroutine is
// a cursor pulling from one shared queue, so each item is handled exactly
// once and each cursor handles its items in input order. Nothing is
// guaranteed about ordering between cursors.
//
// The degree defaults to [DefaultDegree] and is set with [WithDegree].
//
// # Failures
//
// A failing item (error or panic) stops its cursor only. After every cursor
// has returned, [ForEach] reports all failures in one [*AggregateError].
// Each failure is an [*ItemError] naming the input index and the cursor;
// panics are captured as [*PanicError]. Use [IsItemError], [ItemOf],
// [CauseOf] and [AllItemErrors] to inspect them.
//
// # Context
//
// Cursors check the context between items. By default they receive the
// caller's context as-is. [WithDetachedContext] hands them a context that
// is cancelled with the caller's but holds none of its values.
//
// # Observability
//
// [WithOnStart] and [WithOnDone] register per-cursor hooks; the latter
// receives [CursorStats] with the number of processed items, the stopping
// error and the cursor's lifetime.
package fanout
