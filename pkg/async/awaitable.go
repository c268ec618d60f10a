package async

import (
	"errors"
	"time"

	"github.com/strand-dev/strand/pkg/errs"
)

// waitKind is the primitive suspension condition of an awaitable.
type waitKind uint8

const (
	waitNever waitKind = iota
	waitAlways
	waitSignal
	waitTimeout
	waitPolling
)

// closedChan is a reusable pre-closed readiness channel.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Awaitable describes one suspension condition plus a reaction pipeline
// producing a T when the condition fires. Awaitables are single-use within
// one Select call; timeout and polling conditions are armed when the
// Select starts.
type Awaitable[T any] struct {
	kind   waitKind
	signal func() <-chan struct{}
	period time.Duration

	react func() (T, error)

	armedAt time.Time
	result  T
	err     error
}

// Selectable is the type-erased view of an awaitable that Select operates
// on. Only awaitables implement it.
type Selectable interface {
	arm(now time.Time)
	ready(now time.Time) bool
	signalChan() <-chan struct{}
	nextWake(now time.Time) (time.Duration, bool)
	fire() error
	rearm(now time.Time)
}

// Never returns an awaitable that never fires.
func Never() *Awaitable[struct{}] {
	return &Awaitable[struct{}]{kind: waitNever, react: unitReact}
}

// Always returns an awaitable that fires immediately.
func Always() *Awaitable[struct{}] {
	return &Awaitable[struct{}]{kind: waitAlways, react: unitReact}
}

// Timeout returns an awaitable that fires once, d after the Select that
// waits on it starts.
func Timeout(d time.Duration) *Awaitable[struct{}] {
	if d < 0 {
		d = 0
	}
	return &Awaitable[struct{}]{kind: waitTimeout, period: d, react: unitReact}
}

// Polling returns an awaitable that fires every d, re-arming itself after
// each firing.
func Polling(d time.Duration) *Awaitable[struct{}] {
	return &Awaitable[struct{}]{kind: waitPolling, period: d, react: unitReact}
}

// Deadline returns Timeout(t - now), with now taken when Deadline is
// called: it fires at the absolute time point t when a Select waits on it
// right away, and immediately if t has passed.
func Deadline(t time.Time) *Awaitable[struct{}] {
	return Timeout(time.Until(t))
}

// OnSignal returns an awaitable that fires while the channel produced by
// signal is ready. The function is re-invoked on every wait round, so
// latches that swap their channel on reset stay observable.
func OnSignal(signal func() <-chan struct{}) *Awaitable[struct{}] {
	return &Awaitable[struct{}]{kind: waitSignal, signal: signal, react: unitReact}
}

func unitReact() (struct{}, error) { return struct{}{}, nil }

// Then composes f after a's reaction: the new awaitable waits on the same
// condition and produces f(v).
func Then[T, U any](a *Awaitable[T], f func(T) (U, error)) *Awaitable[U] {
	inner := a.react
	return &Awaitable[U]{
		kind:   a.kind,
		signal: a.signal,
		period: a.period,
		react: func() (U, error) {
			v, err := inner()
			if err != nil {
				var zero U
				return zero, err
			}
			return f(v)
		},
	}
}

// Except installs a typed catch: if the reaction fails with the given
// kind, h handles the failure; other errors pass through.
func Except[T any](a *Awaitable[T], kind errs.Kind, h func(error) (T, error)) *Awaitable[T] {
	inner := a.react
	return &Awaitable[T]{
		kind:   a.kind,
		signal: a.signal,
		period: a.period,
		react: func() (T, error) {
			v, err := inner()
			if err != nil && errs.KindOf(err) == kind {
				return h(err)
			}
			return v, err
		},
	}
}

// Decorate wraps the whole reaction so w observes both success and
// failure of the inner pipeline.
func Decorate[T, U any](a *Awaitable[T], w func(inner func() (T, error)) (U, error)) *Awaitable[U] {
	inner := a.react
	return &Awaitable[U]{
		kind:   a.kind,
		signal: a.signal,
		period: a.period,
		react:  func() (U, error) { return w(inner) },
	}
}

// Result returns the value produced by the reaction after this awaitable
// won a Select.
func (a *Awaitable[T]) Result() (T, error) {
	return a.result, a.err
}

func (a *Awaitable[T]) arm(now time.Time) {
	a.armedAt = now
}

func (a *Awaitable[T]) ready(now time.Time) bool {
	switch a.kind {
	case waitAlways:
		return true
	case waitSignal:
		select {
		case <-a.signal():
			return true
		default:
			return false
		}
	case waitTimeout, waitPolling:
		return now.Sub(a.armedAt) >= a.period
	default:
		return false
	}
}

func (a *Awaitable[T]) signalChan() <-chan struct{} {
	if a.kind != waitSignal {
		return nil
	}
	return a.signal()
}

func (a *Awaitable[T]) nextWake(now time.Time) (time.Duration, bool) {
	if a.kind != waitTimeout && a.kind != waitPolling {
		return 0, false
	}
	left := a.period - now.Sub(a.armedAt)
	if left < 0 {
		left = 0
	}
	return left, true
}

func (a *Awaitable[T]) fire() error {
	a.result, a.err = a.react()
	return a.err
}

// rearm resets the condition after a firing whose reaction reported
// try_again. Polling conditions restart their interval; one-shot timeouts
// stay expired.
func (a *Awaitable[T]) rearm(now time.Time) {
	if a.kind == waitPolling {
		a.armedAt = now
	}
}

// isTryAgain reports whether a reaction error means "condition consumed
// elsewhere, keep waiting".
func isTryAgain(err error) bool {
	return errors.Is(err, errs.TryAgain)
}
