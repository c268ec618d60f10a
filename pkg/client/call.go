package client

import (
	"context"
	"errors"
	"time"

	"github.com/strand-dev/strand/pkg/async"
	"github.com/strand-dev/strand/pkg/errs"
	"github.com/strand-dev/strand/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MethodDesc describes one method of a remote interface: its name and the
// ordered portable names of its parameter and result types. The signature
// hash derived from it is the method's wire identity.
//
// This is the explicit "describe" rendition of signature reflection:
// interfaces list their methods once, typically as package-level variables.
type MethodDesc struct {
	Name string
	Hash uint64
}

// NewMethod builds a method descriptor from the method name and the
// portable names of its parameter and result types.
func NewMethod(name string, params []string, result string) MethodDesc {
	return MethodDesc{
		Name: name,
		Hash: protocol.SignatureHash(name, params, result),
	}
}

// RemoteObject is a proxy handle to a named object on the peer. Typed
// interface wrappers embed one and call through Call or AsyncCall.
type RemoteObject struct {
	engine *Engine
	name   string
	opts   CallOptions
}

// GetProxy creates a proxy for the remote object with the given
// hierarchical name.
func (e *Engine) GetProxy(name string, opts ...CallOptions) *RemoteObject {
	ro := &RemoteObject{engine: e, name: name}
	if len(opts) > 0 {
		ro.opts = opts[0]
	}
	return ro
}

// Name returns the remote object's name.
func (ro *RemoteObject) Name() string { return ro.name }

// Engine returns the engine this proxy calls through.
func (ro *RemoteObject) Engine() *Engine { return ro.engine }

// requestTimeout resolves the proxy's effective per-request timeout.
func (ro *RemoteObject) requestTimeout() (time.Duration, bool) {
	t := ro.opts.RequestTimeout
	if t == 0 {
		t = ro.engine.cfg.RequestTimeout
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// AsyncCall dispatches a method call and returns a future for the raw
// result bytes plus the allocated request id. The caller's context
// supplies the deadline (tightened by the proxy's request timeout) and is
// marshalled into the request so the peer observes it.
//
// Send failures resolve the future; AsyncCall itself does not fail.
func (ro *RemoteObject) AsyncCall(ctx *async.Context, m MethodDesc, args ...protocol.Marshaler) (*async.Future[[]byte], uint32) {
	e := ro.engine

	// Per-call child context: the proxy's request timeout participates in
	// deadline propagation without mutating the caller's context.
	callCtx := async.New(ctx)
	defer callCtx.Detach()
	if d, enabled := ro.requestTimeout(); enabled {
		callCtx.SetTimeout(d)
	}

	id := e.newRequestID()

	enc := protocol.NewEncoder()
	protocol.EncodeRequest(enc, id, &protocol.RequestHeader{
		ObjectName:    ro.name,
		MethodName:    m.Name,
		SignatureHash: m.Hash,
		Context:       callCtx.Record(),
	}, protocol.EncodeArgs(args...))

	return e.sendRequest(callCtx, id, enc.Bytes()), id
}

// Call dispatches a method call and blocks cooperatively for the decoded
// result. R is the method's return type; PR constrains it to something the
// codec can fill in place.
//
// If the caller's context is cancelled while the call is in flight, the
// call resolves with a cancelled failure and one CANCEL_REQUEST frame is
// emitted for the peer, best-effort.
func Call[R any, PR interface {
	*R
	protocol.Unmarshaler
}](ctx *async.Context, ro *RemoteObject, m MethodDesc, args ...protocol.Marshaler) (R, error) {
	e := ro.engine

	_, span := e.cfg.Tracer.Start(context.Background(), "rpc.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.object", ro.name),
			attribute.String("rpc.method", m.Name),
		))
	defer span.End()

	fut, id := ro.AsyncCall(ctx, m, args...)
	span.SetAttributes(attribute.Int64("rpc.request_id", int64(id)))

	raw, err := decodeFuture[R, PR](fut).Get(ctx)
	if err != nil {
		if errors.Is(err, errs.Cancelled) {
			// The caller gave up: abandon the request locally and tell
			// the peer, out of band.
			e.CancelRequest(id)
		}
		span.SetStatus(codes.Error, errs.KindOf(err).PortableName())
		var zero R
		return zero, err
	}
	span.SetStatus(codes.Ok, "")
	return raw, nil
}

// decodeFuture chains result decoding onto the raw response future:
// the result trailer re-raises peer failures by portable name, then the
// value bytes decode into R.
func decodeFuture[R any, PR interface {
	*R
	protocol.Unmarshaler
}](fut *async.Future[[]byte]) *async.Future[R] {
	return async.FutureThen(fut, func(raw []byte) (R, error) {
		var out R
		value, err := protocol.DecodeResult(protocol.NewDecoder(raw))
		if err != nil {
			return out, err
		}
		if err := PR(&out).DecodeFrom(protocol.NewDecoder(value)); err != nil {
			return out, err
		}
		return out, nil
	})
}
