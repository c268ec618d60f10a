package async

import (
	"reflect"
	"time"

	"github.com/strand-dev/strand/pkg/errs"
)

// Select blocks until exactly one of the awaitables fires, runs that
// awaitable's reaction, and returns its index. The typed result is read
// from the winning awaitable's Result method.
//
// Ordering: when several conditions are simultaneously ready, the earliest
// argument wins; a deterministic in-order readiness scan precedes every
// blocking wait.
//
// Select observes ctx throughout: if ctx is or becomes cancelled the call
// returns (-1, cancelled); if ctx's effective deadline passes it returns
// (-1, deadline_exceeded). Cancellation takes precedence over the deadline,
// and both take precedence over user awaitables.
//
// A reaction failing with the try_again kind re-arms its condition and the
// wait continues. Any other reaction error is returned alongside the
// winning index.
func Select(ctx *Context, items ...Selectable) (int, error) {
	if ctx == nil {
		ctx = Background()
	}

	now := time.Now()
	for _, it := range items {
		it.arm(now)
	}

	for {
		if ctx.cancelRequested() {
			return -1, errs.New(errs.KindCancelled, "context is cancelled")
		}
		deadline, hasDeadline := ctx.EffectiveDeadline()
		if hasDeadline && !now.Before(deadline) {
			return -1, errs.New(errs.KindDeadlineExceeded, "context deadline exceeded")
		}

		// In-order readiness scan: earlier arguments win ties.
		for i, it := range items {
			if !it.ready(now) {
				continue
			}
			err := it.fire()
			if err != nil && isTryAgain(err) {
				it.rearm(now)
				continue
			}
			return i, err
		}

		// Nothing ready: block until a signal, the nearest timer, or the
		// context wakes us.
		var wake time.Duration
		hasWake := false
		if hasDeadline {
			wake = deadline.Sub(now)
			hasWake = true
		}
		for _, it := range items {
			if d, ok := it.nextWake(now); ok && (!hasWake || d < wake) {
				wake = d
				hasWake = true
			}
		}

		cases := make([]reflect.SelectCase, 0, len(items)+2)
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(ctx.cancelSignal()),
		})
		for _, it := range items {
			if ch := it.signalChan(); ch != nil {
				cases = append(cases, reflect.SelectCase{
					Dir:  reflect.SelectRecv,
					Chan: reflect.ValueOf(ch),
				})
			}
		}

		var timer *time.Timer
		if hasWake {
			if wake < 0 {
				wake = 0
			}
			timer = time.NewTimer(wake)
			cases = append(cases, reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(timer.C),
			})
		}

		reflect.Select(cases)
		if timer != nil {
			timer.Stop()
		}
		now = time.Now()
	}
}
