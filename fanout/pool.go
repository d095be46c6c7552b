package fanout

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type entry[T any] struct {
	index int
	item  T
}

// pool runs a fixed number of cursors over one shared, pre-filled queue.
// Each cursor receives entries in ascending index order; entries taken by
// one cursor are never seen by another.
type pool[T any] struct {
	ctx    context.Context
	action func(context.Context, T) error
	cfg    config
	queue  chan entry[T]
	wg     sync.WaitGroup

	errMu sync.Mutex
	errs  []*ItemError

	cancelled atomic.Bool // a cursor stopped early because ctx was done
}

func newPool[T any](
	ctx context.Context,
	items []T,
	action func(context.Context, T) error,
	cfg config,
) *pool[T] {
	// Buffered to len(items) and closed up front: cursors never block on
	// the producer and a failed cursor leaves its share to the others.
	queue := make(chan entry[T], len(items))
	for i, item := range items {
		queue <- entry[T]{index: i, item: item}
	}
	close(queue)

	return &pool[T]{
		ctx:    ctx,
		action: action,
		cfg:    cfg,
		queue:  queue,
	}
}

func (p *pool[T]) start(n int) {
	p.wg.Add(n)
	for id := range n {
		go p.cursor(CursorInfo{ID: id})
	}
}

func (p *pool[T]) cursor(info CursorInfo) {
	defer p.wg.Done()

	if p.cfg.onStart != nil {
		p.cfg.onStart(info)
	}

	ctx := withCursor(p.ctx, info)
	start := time.Now()
	var st CursorStats
	for e := range p.queue {
		if ctx.Err() != nil {
			p.cancelled.Store(true)
			break
		}

		st.Processed++
		if err := p.exec(ctx, e.item); err != nil {
			st.Err = err
			p.record(info, e.index, err)
			break
		}
	}
	st.Duration = time.Since(start)

	if p.cfg.onDone != nil {
		p.cfg.onDone(info, st)
	}
}

// exec runs the action with panic recovery.
func (p *pool[T]) exec(ctx context.Context, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return p.action(ctx, item)
}

func (p *pool[T]) record(info CursorInfo, index int, err error) {
	p.errMu.Lock()
	p.errs = append(p.errs, &ItemError{
		Cursor: info,
		Index:  index,
		Err:    err,
	})
	p.errMu.Unlock()
}

// wait blocks until every cursor has returned and reports the outcome.
func (p *pool[T]) wait() error {
	p.wg.Wait()

	p.errMu.Lock()
	defer p.errMu.Unlock()

	if len(p.errs) > 0 {
		errs := slices.Clone(p.errs)
		slices.SortFunc(errs, func(a, b *ItemError) int {
			return a.Index - b.Index
		})
		return &AggregateError{Errs: errs}
	}

	// No item failed, but some were skipped: surface why.
	if p.cancelled.Load() {
		return context.Cause(p.ctx)
	}
	return nil
}
