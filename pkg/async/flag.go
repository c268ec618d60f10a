package async

import (
	"sync"

	"github.com/strand-dev/strand/pkg/errs"
)

// Flag is a set/reset latch with a select-friendly wait. Waiters observe
// the flag level-triggered: AsyncWait fires whenever the flag is set, and
// keeps firing until it is reset.
type Flag struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

// Set raises the flag, waking all current waiters. Idempotent.
func (f *Flag) Set() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.set {
		return
	}
	f.set = true
	if f.ch != nil {
		close(f.ch)
		f.ch = nil
	}
}

// Reset lowers the flag. Idempotent.
func (f *Flag) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = false
}

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

// signal returns a channel that is closed while the flag is set. A fresh
// channel is handed out after a reset, so waiters re-fetch it every round.
func (f *Flag) signal() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.set {
		return closedChan
	}
	if f.ch == nil {
		f.ch = make(chan struct{})
	}
	return f.ch
}

// AsyncWait returns an awaitable that fires while the flag is set.
func (f *Flag) AsyncWait() *Awaitable[struct{}] {
	a := OnSignal(f.signal)
	a.react = func() (struct{}, error) {
		if !f.IsSet() {
			return struct{}{}, errs.New(errs.KindTryAgain, "flag not set")
		}
		return struct{}{}, nil
	}
	return a
}

// Wait blocks cooperatively until the flag is set.
func (f *Flag) Wait(ctx *Context) error {
	_, err := Select(ctx, f.AsyncWait())
	return err
}
