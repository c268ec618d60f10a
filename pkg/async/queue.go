package async

import (
	"sync"

	"github.com/strand-dev/strand/pkg/errs"
)

// Queue is a bounded FIFO with blocking, non-blocking and awaitable
// accessors. Readiness is tracked by two flags so queue operations compose
// with Select.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int

	canGet Flag
	canPut Flag
}

// NewQueue creates a queue with the given fixed capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic(errs.Newf(errs.KindInvalidArgument, "async: queue capacity %d", capacity))
	}
	q := &Queue[T]{capacity: capacity}
	q.canPut.Set()
	return q
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the queue's fixed capacity.
func (q *Queue[T]) Cap() int { return q.capacity }

// TryPut enqueues without blocking, failing with try_again when full.
func (q *Queue[T]) TryPut(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.capacity {
		return errs.New(errs.KindTryAgain, "queue is full")
	}
	q.items = append(q.items, v)
	q.updateFlags()
	return nil
}

// TryGet dequeues without blocking, failing with try_again when empty.
func (q *Queue[T]) TryGet() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, errs.New(errs.KindTryAgain, "queue is empty")
	}
	v := q.items[0]
	copy(q.items, q.items[1:])
	q.items = q.items[:len(q.items)-1]
	q.updateFlags()
	return v, nil
}

// AsyncPut returns an awaitable that enqueues v once space is available.
func (q *Queue[T]) AsyncPut(v T) *Awaitable[struct{}] {
	a := OnSignal(q.canPut.signal)
	a.react = func() (struct{}, error) {
		return struct{}{}, q.TryPut(v)
	}
	return a
}

// AsyncGet returns an awaitable that dequeues once an item is available.
func (q *Queue[T]) AsyncGet() *Awaitable[T] {
	a := OnSignal(q.canGet.signal)
	return Then(a, func(struct{}) (T, error) {
		return q.TryGet()
	})
}

// Put blocks cooperatively until v is enqueued.
func (q *Queue[T]) Put(ctx *Context, v T) error {
	_, err := Select(ctx, q.AsyncPut(v))
	return err
}

// Get blocks cooperatively until an item is dequeued.
func (q *Queue[T]) Get(ctx *Context) (T, error) {
	a := q.AsyncGet()
	if _, err := Select(ctx, a); err != nil {
		var zero T
		return zero, err
	}
	return a.Result()
}

// updateFlags re-derives readiness from the current fill level.
// Callers hold q.mu.
func (q *Queue[T]) updateFlags() {
	if len(q.items) == 0 {
		q.canGet.Reset()
	} else {
		q.canGet.Set()
	}
	if len(q.items) == q.capacity {
		q.canPut.Reset()
	} else {
		q.canPut.Set()
	}
}
