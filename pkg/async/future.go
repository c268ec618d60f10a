package async

import (
	"sync"

	"github.com/strand-dev/strand/pkg/errs"
)

// futureState is the shared one-shot slot between a promise and its
// futures.
type futureState[T any] struct {
	mu       sync.Mutex
	resolved bool
	val      T
	err      error
	ready    Flag
}

func (st *futureState[T]) resolve(v T, err error) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.resolved {
		return false
	}
	st.resolved = true
	st.val = v
	st.err = err
	st.ready.Set()
	return true
}

func (st *futureState[T]) tryGet() (T, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.resolved {
		var zero T
		return zero, errs.New(errs.KindTryAgain, "future not ready yet")
	}
	return st.val, st.err
}

// Promise is the write side of a one-shot typed result channel.
type Promise[T any] struct {
	st *futureState[T]
}

// NewPromise creates an unresolved promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{st: &futureState[T]{}}
}

// SetValue resolves the promise with a value. Resolving twice is a bug and
// panics with an internal_error kind.
func (p *Promise[T]) SetValue(v T) {
	if !p.st.resolve(v, nil) {
		panic(errs.New(errs.KindInternal, "promise resolved twice"))
	}
}

// SetError resolves the promise with a failure. Resolving twice is a bug
// and panics with an internal_error kind.
func (p *Promise[T]) SetError(err error) {
	var zero T
	if !p.st.resolve(zero, err) {
		panic(errs.New(errs.KindInternal, "promise resolved twice"))
	}
}

// TrySetValue resolves the promise if still unresolved. It reports whether
// this call resolved it. Used by broadcast paths where losing a race with
// the regular resolution is expected.
func (p *Promise[T]) TrySetValue(v T) bool {
	return p.st.resolve(v, nil)
}

// TrySetError resolves the promise with a failure if still unresolved.
func (p *Promise[T]) TrySetError(err error) bool {
	var zero T
	return p.st.resolve(zero, err)
}

// IsResolved reports whether the promise has been resolved.
func (p *Promise[T]) IsResolved() bool {
	p.st.mu.Lock()
	defer p.st.mu.Unlock()
	return p.st.resolved
}

// Future returns the read side of the promise.
func (p *Promise[T]) Future() *Future[T] {
	return &Future[T]{ready: &p.st.ready, get: p.st.tryGet}
}

// Future is the read side of a one-shot typed result channel. Futures are
// cheap handles: continuation chains built with FutureThen and
// FutureExcept share the underlying slot.
type Future[T any] struct {
	ready *Flag
	get   func() (T, error)
}

// TryGet returns the result without blocking, failing with try_again while
// unresolved.
func (f *Future[T]) TryGet() (T, error) {
	return f.get()
}

// AsyncGet returns an awaitable that fires once the result is available,
// producing the value or raising the recorded failure.
func (f *Future[T]) AsyncGet() *Awaitable[T] {
	a := OnSignal(f.ready.signal)
	return Then(a, func(struct{}) (T, error) {
		return f.get()
	})
}

// Get blocks cooperatively until the result is available, observing the
// context's cancellation and deadline.
func (f *Future[T]) Get(ctx *Context) (T, error) {
	a := f.AsyncGet()
	if _, err := Select(ctx, a); err != nil {
		var zero T
		return zero, err
	}
	return a.Result()
}

// FutureThen composes fn after the future's result: the returned future
// yields fn(v), and failures pass through untouched.
func FutureThen[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	inner := f.get
	return &Future[U]{
		ready: f.ready,
		get: func() (U, error) {
			v, err := inner()
			if err != nil {
				var zero U
				return zero, err
			}
			return fn(v)
		},
	}
}

// FutureExcept installs a typed catch on the future's continuation chain:
// failures of the given kind are handled by h, everything else passes
// through. The try_again kind cannot be caught — it encodes "not ready".
func FutureExcept[T any](f *Future[T], kind errs.Kind, h func(error) (T, error)) *Future[T] {
	inner := f.get
	return &Future[T]{
		ready: f.ready,
		get: func() (T, error) {
			v, err := inner()
			if err != nil && errs.KindOf(err) == kind && kind != errs.KindTryAgain {
				return h(err)
			}
			return v, err
		},
	}
}
