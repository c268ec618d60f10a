// Package client implements the Strand RPC client engine: a request
// multiplexer over a single reconnectable packet connection.
//
// One Engine owns one connection and any number of in-flight calls. Each
// call allocates a monotonically increasing request id, registers a
// pending entry carrying the caller's deadline, and writes one REQUEST
// frame. A dedicated receiver goroutine reads frames and resolves pending
// entries by request id; a second goroutine watches the earliest pending
// deadline and the out-of-band cancellation queue, failing expired calls
// locally and emitting CANCEL_REQUEST frames for cancelled ones.
//
// Failure model: errors observed by the receiver are broadcast to every
// pending entry and the connection is reopened on the next call. Errors on
// a send path fail only the originating call. Deadline and cancellation
// failures are local to their call.
//
// Proxies are handles to named remote objects. Typed calls go through the
// generic Call helper with an explicit method descriptor; RemoteObject's
// AsyncCall takes the same descriptor and returns a future of the raw
// result bytes. See GetProxy.
package client
