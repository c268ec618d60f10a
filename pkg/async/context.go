package async

import (
	"sync"
	"time"

	"github.com/strand-dev/strand/internal/container"
	"github.com/strand-dev/strand/pkg/errs"
	"github.com/strand-dev/strand/pkg/protocol"
)

// Context is a node in the cancellation/deadline tree. Cancelling a
// context cancels all its descendants; the effective deadline of a context
// is the earliest deadline along its ancestor chain. A shielded context
// severs ancestor cancellation and deadline propagation for its subtree.
//
// Contexts also carry keyed data: portable values stored under their
// portable class name, inherited by children at creation time, and
// marshalled across process boundaries inside every request.
type Context struct {
	parent *Context
	shield bool

	childMu  sync.Mutex
	children map[*Context]struct{}
	detached *sync.Cond

	cancelled Flag

	dataMu      sync.Mutex
	deadline    time.Time
	hasDeadline bool
	data        container.SortedMap[string, protocol.Value]
}

var (
	backgroundOnce sync.Once
	background     *Context
)

// Background returns the process-wide root context. It has no deadline,
// carries no values, and is never cancelled.
func Background() *Context {
	backgroundOnce.Do(func() {
		background = &Context{}
		background.detached = sync.NewCond(&background.childMu)
	})
	return background
}

// New creates a child of parent (Background when nil). The child inherits
// the parent's data values; cancellation and deadlines propagate from the
// parent for the child's lifetime.
func New(parent *Context) *Context {
	return newContext(parent, false)
}

// NewShield creates a shielded child: ancestor cancellation and deadlines
// do not reach it or its descendants. Data values are still inherited.
func NewShield(parent *Context) *Context {
	return newContext(parent, true)
}

func newContext(parent *Context, shield bool) *Context {
	if parent == nil {
		parent = Background()
	}
	c := &Context{parent: parent, shield: shield}
	c.detached = sync.NewCond(&c.childMu)

	// Data is inherited by value snapshot, shielded or not.
	parent.dataMu.Lock()
	for i := 0; i < parent.data.Len(); i++ {
		c.data.Insert(parent.data.KeyAt(i), parent.data.ValueAt(i))
	}
	parent.dataMu.Unlock()

	if !shield {
		parent.addChild(c)
	}
	return c
}

func (c *Context) addChild(child *Context) {
	c.childMu.Lock()
	defer c.childMu.Unlock()
	if c.children == nil {
		c.children = make(map[*Context]struct{})
	}
	c.children[child] = struct{}{}
	if c.cancelled.IsSet() {
		child.Cancel()
	}
}

func (c *Context) removeChild(child *Context) {
	c.childMu.Lock()
	delete(c.children, child)
	c.childMu.Unlock()
	c.detached.Broadcast()
}

// Cancel idempotently cancels the context and all its descendants, waking
// every WaitCancelled awaitable and failing every Select running under it.
func (c *Context) Cancel() {
	c.childMu.Lock()
	for child := range c.children {
		child.Cancel()
	}
	c.childMu.Unlock()
	c.cancelled.Set()
}

// Detach ends the context's lifetime: it cancels the subtree, waits until
// every child has detached, and removes the context from its parent. Call
// it when the work scoped to the context is done.
func (c *Context) Detach() {
	c.Cancel()

	c.childMu.Lock()
	for len(c.children) > 0 {
		c.detached.Wait()
	}
	c.childMu.Unlock()

	if c.parent != nil && !c.shield {
		c.parent.removeChild(c)
	}
}

// cancelRequested reports whether this context or a non-severed ancestor
// has been explicitly cancelled.
func (c *Context) cancelRequested() bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.cancelled.IsSet() {
			return true
		}
		if cur.shield {
			return false
		}
	}
	return false
}

// cancelSignal returns the channel Select blocks on for cancellation.
// Ancestor cancellation cascades into this context's own flag, so the own
// flag's channel is sufficient.
func (c *Context) cancelSignal() <-chan struct{} {
	return c.cancelled.signal()
}

// IsCancelled reports whether the context is cancelled: its own flag, a
// non-severed ancestor's flag, or an expired effective deadline.
func (c *Context) IsCancelled() bool {
	if c.cancelRequested() {
		return true
	}
	if dl, ok := c.EffectiveDeadline(); ok && time.Now().After(dl) {
		return true
	}
	return false
}

// SetDeadline records an absolute deadline. Setting can only tighten: a
// later deadline than the current effective one is ignored.
func (c *Context) SetDeadline(t time.Time) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	if !c.hasDeadline || t.Before(c.deadline) {
		c.deadline = t
		c.hasDeadline = true
	}
}

// SetTimeout records a deadline d from now.
func (c *Context) SetTimeout(d time.Duration) {
	c.SetDeadline(time.Now().Add(d))
}

func (c *Context) ownDeadline() (time.Time, bool) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	return c.deadline, c.hasDeadline
}

// EffectiveDeadline returns the earliest deadline along the non-severed
// ancestor chain.
func (c *Context) EffectiveDeadline() (time.Time, bool) {
	var earliest time.Time
	has := false
	for cur := c; cur != nil; cur = cur.parent {
		if dl, ok := cur.ownDeadline(); ok && (!has || dl.Before(earliest)) {
			earliest = dl
			has = true
		}
		if cur.shield {
			break
		}
	}
	return earliest, has
}

// DeadlineLeft returns the remaining time until the effective deadline.
func (c *Context) DeadlineLeft() (time.Duration, bool) {
	dl, ok := c.EffectiveDeadline()
	if !ok {
		return 0, false
	}
	return time.Until(dl), true
}

// WaitCancelled returns an awaitable that fires with a cancelled error
// once the context is cancelled.
func (c *Context) WaitCancelled() *Awaitable[struct{}] {
	a := OnSignal(c.cancelSignal)
	a.react = func() (struct{}, error) {
		if !c.cancelRequested() {
			return struct{}{}, errs.New(errs.KindTryAgain, "context not cancelled")
		}
		return struct{}{}, errs.New(errs.KindCancelled, "context is cancelled")
	}
	return a
}

// WaitDeadline returns an awaitable that fires with a deadline_exceeded
// error at the context's effective deadline, or never when there is none.
func (c *Context) WaitDeadline() *Awaitable[struct{}] {
	dl, ok := c.EffectiveDeadline()
	if !ok {
		return Never()
	}
	return Then(Deadline(dl), func(struct{}) (struct{}, error) {
		return struct{}{}, errs.New(errs.KindDeadlineExceeded, "deadline exceeded")
	})
}

// Set stores portable values, keyed by their portable class names.
// A later Set with the same class name replaces the earlier value.
func (c *Context) Set(values ...protocol.Value) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	for _, v := range values {
		c.data.Set(v.PortableClassName(), v)
	}
}

// Reset removes the values stored under the given portable class names.
func (c *Context) Reset(names ...string) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	for _, name := range names {
		c.data.Delete(name)
	}
}

// ResetAll removes every stored value.
func (c *Context) ResetAll() {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	c.data.Clear()
}

// Get returns the value stored under a portable class name. When absent,
// it returns a fresh zero value from the protocol registry, so readers
// always observe a usable instance of a registered type.
func (c *Context) Get(name string) (protocol.Value, bool) {
	c.dataMu.Lock()
	v, ok := c.data.Get(name)
	c.dataMu.Unlock()
	if ok {
		return v, true
	}
	if zero, registered := protocol.NewValue(name); registered {
		return zero, false
	}
	return nil, false
}

// Values returns a snapshot of the stored values in name order.
func (c *Context) Values() []protocol.Value {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	out := make([]protocol.Value, 0, c.data.Len())
	for i := 0; i < c.data.Len(); i++ {
		out = append(out, c.data.ValueAt(i))
	}
	return out
}

// Record captures the context's wire form: remaining deadline, values, and
// cancellation state.
func (c *Context) Record() protocol.ContextRecord {
	rec := protocol.ContextRecord{
		Values:    c.Values(),
		Cancelled: c.cancelRequested(),
	}
	if left, ok := c.DeadlineLeft(); ok {
		rec.HasDeadline = true
		rec.DeadlineLeft = left
	}
	return rec
}

// NewFromRecord reconstructs a context from its wire form as a child of
// parent: a matching timeout, the carried values, and the cancellation
// state.
func NewFromRecord(parent *Context, rec *protocol.ContextRecord) *Context {
	c := New(parent)
	if rec.HasDeadline {
		c.SetTimeout(rec.DeadlineLeft)
	}
	c.Set(rec.Values...)
	if rec.Cancelled {
		c.Cancel()
	}
	return c
}
