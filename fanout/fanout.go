package fanout

import "context"

// ForEach invokes action once for every element of items, spreading the
// work over at most min(degree, len(items)) concurrent cursors, and blocks
// until every cursor has finished.
//
// A cursor that sees an error or panic from action stops taking items; the
// remaining cursors keep going. Once all cursors are done, ForEach returns a
// [*AggregateError] holding every failure, or nil if there were none.
// Work already done by other items is not undone.
//
// The context is checked before each item. If ctx is cancelled and items
// were skipped without any failure, ForEach returns the context's cause.
//
//	err := fanout.ForEach(ctx, urls, func(ctx context.Context, u string) error {
//	    return fetch(ctx, u)
//	}, fanout.WithDegree(4))
//
// ForEach panics if action is nil.
func ForEach[T any](
	ctx context.Context,
	items []T,
	action func(ctx context.Context, item T) error,
	opts ...Option,
) error {
	if action == nil {
		panic("fanout: ForEach requires non-nil action")
	}
	if len(items) == 0 {
		return nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	wctx := ctx
	if cfg.detach {
		var stop func()
		wctx, stop = detach(ctx)
		defer stop()
	}

	p := newPool(wctx, items, action, cfg)
	p.start(cfg.workers(len(items)))
	return p.wait()
}

// detach returns a context that is cancelled together with parent but
// does not expose parent's values.
func detach(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(context.Background())
	stop := context.AfterFunc(parent, func() {
		cancel(context.Cause(parent))
	})
	return ctx, func() {
		stop()
		cancel(nil)
	}
}

type cursorKey struct{}

func withCursor(ctx context.Context, info CursorInfo) context.Context {
	return context.WithValue(ctx, cursorKey{}, info)
}

// CursorFrom returns the cursor running the current action. It reports
// false when ctx was not handed out by [ForEach].
func CursorFrom(ctx context.Context) (CursorInfo, bool) {
	info, ok := ctx.Value(cursorKey{}).(CursorInfo)
	return info, ok
}
