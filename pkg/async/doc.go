// Package async provides the cooperative concurrency core of the Strand
// RPC runtime: awaitables with reaction pipelines, a multi-way select over
// heterogeneous wait conditions, a propagating cancellation/deadline
// context tree, and the select-friendly primitives built on top of them
// (flags, bounded queues, promises/futures).
//
// # Awaitables
//
// An Awaitable describes exactly one suspension condition — a readiness
// signal, a one-shot timeout, a polling interval, never, or always — plus
// a reaction pipeline that turns the raw firing into a typed value.
// Reactions compose with Then (pipe), Except (typed catch) and Decorate
// (wrap). A reaction that fails with the try_again kind does not complete
// a select; the condition re-arms and the select keeps waiting, which is
// how level-triggered readiness composes with guarded non-blocking state.
//
// # Select
//
// Select blocks until exactly one awaitable fires, runs that awaitable's
// reaction and reports the winning index. When several conditions are
// ready at once the earliest argument wins. Select always observes the
// supplied context: cancellation surfaces as a cancelled error and an
// expired deadline as deadline_exceeded, regardless of which awaitables
// are pending.
//
// # Contexts
//
// A Context is a tree node carrying a cancellation flag, an optional
// deadline, and keyed portable values. Cancelling a node cancels its
// descendants; a node's effective deadline is the earliest along its
// ancestor chain. A shielded context severs ancestor cancellation and
// deadline propagation for its subtree. Contexts marshal to and from
// protocol.ContextRecord, which is how deadlines and values propagate
// across process boundaries.
//
// The runtime has no thread-local state: the current context is passed
// explicitly to every blocking operation, mirroring how the standard
// library's context.Context travels.
//
// All primitives in this package live together because they are mutually
// recursive: flags wait via select, select observes contexts, contexts
// carry flags, and queues and futures are built from flags and select.
package async
