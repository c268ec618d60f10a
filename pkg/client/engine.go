package client

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/strand-dev/strand/internal/container"
	"github.com/strand-dev/strand/pkg/async"
	"github.com/strand-dev/strand/pkg/errs"
	"github.com/strand-dev/strand/pkg/packet"
	"github.com/strand-dev/strand/pkg/protocol"
)

const tracerName = "github.com/strand-dev/strand/pkg/client"

// pendingRequest is the engine-side state of one in-flight call.
type pendingRequest struct {
	deadline    time.Time
	hasDeadline bool
	startedAt   time.Time
	result      *async.Promise[[]byte]
}

// Engine multiplexes RPC requests over one reconnectable packet
// connection. Create one with NewEngine, hand out proxies with GetProxy,
// and Close it when done; Close fails all in-flight calls.
type Engine struct {
	cfg  Config
	conn *packet.Conn

	pendingMu sync.Mutex
	sequence  uint32
	pending   container.SortedMap[uint32, *pendingRequest]

	sendingMu sync.Mutex
	ready     async.Flag

	newDeadline *async.Queue[struct{}]
	cancelled   *async.Queue[uint32]

	receiverCtx  *async.Context
	handlerCtx   *async.Context
	receiverDone chan struct{}
	handlerDone  chan struct{}
	closeOnce    sync.Once

	log     *slog.Logger
	metrics *metrics
}

// NewEngine creates an engine over the given connector and starts its
// background receiver and timeout/cancellation handler. The connection is
// opened lazily by the first call.
func NewEngine(connector packet.Connector, opts ...Option) *Engine {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:          cfg,
		conn:         packet.NewConn(connector),
		newDeadline:  async.NewQueue[struct{}](cfg.MaxQueuedEvents),
		cancelled:    async.NewQueue[uint32](cfg.MaxQueuedEvents),
		receiverCtx:  async.New(nil),
		handlerCtx:   async.New(nil),
		receiverDone: make(chan struct{}),
		handlerDone:  make(chan struct{}),
		log:          cfg.Logger.With("engine_id", uuid.NewString()),
		metrics:      newMetrics(cfg.Registerer),
	}

	go e.receive()
	go e.handleTimeoutsAndCancellations()
	return e
}

// Close shuts the engine down: it stops the receiver, disconnects the
// connection (failing all in-flight calls with a broadcast), and stops the
// timeout/cancellation handler. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.receiverCtx.Cancel()
		e.conn.Disconnect()
		<-e.receiverDone

		e.handlerCtx.Cancel()
		<-e.handlerDone

		// Whatever survived the disconnect broadcast fails now.
		e.broadcast(errs.New(errs.KindShuttingDown, "client: engine closed"))

		e.receiverCtx.Detach()
		e.handlerCtx.Detach()
		e.log.Info("engine closed")
	})
}

// newRequestID allocates the next request id. Ids are strictly increasing
// for the engine's lifetime.
func (e *Engine) newRequestID() uint32 {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	id := e.sequence
	e.sequence++
	return id
}

// sendRequest registers a pending entry for id and writes the frame. The
// returned future resolves with the raw response bytes or a typed failure.
func (e *Engine) sendRequest(callCtx *async.Context, id uint32, frame []byte) *async.Future[[]byte] {
	p := async.NewPromise[[]byte]()
	entry := &pendingRequest{result: p, startedAt: time.Now()}
	if dl, ok := callCtx.EffectiveDeadline(); ok {
		entry.deadline = dl
		entry.hasDeadline = true
	}

	e.pendingMu.Lock()
	e.pending.Insert(id, entry)
	e.pendingMu.Unlock()
	e.metrics.callsStarted.Inc()
	e.metrics.inFlight.Inc()

	if entry.hasDeadline {
		// Nudge the timeout handler to re-read the earliest deadline.
		// A full doorbell is fine: the handler re-reads it anyway.
		if err := e.newDeadline.TryPut(struct{}{}); err != nil && !errors.Is(err, errs.TryAgain) {
			e.log.Warn("deadline doorbell", "error", err)
		}
	}

	if err := e.send(frame); err != nil {
		e.failRequest(id, err)
	}
	return p.Future()
}

// send serializes frame writes and connect attempts. On I/O failure the
// connection is marked unhealthy and torn down; only the originating call
// observes the error.
func (e *Engine) send(frame []byte) error {
	e.sendingMu.Lock()
	defer e.sendingMu.Unlock()

	wasConnected := e.conn.Connected()
	if err := e.conn.Connect(); err != nil {
		e.ready.Reset()
		return err
	}
	if !wasConnected {
		e.metrics.connects.Inc()
		e.log.Info("connected")
	}

	if err := e.conn.Send(frame); err != nil {
		e.ready.Reset()
		e.conn.Disconnect()
		e.metrics.disconnects.Inc()
		e.log.Warn("send failed, disconnected", "error", err)
		return err
	}

	e.metrics.framesSent.Inc()
	e.metrics.bytesSent.Add(float64(len(frame)))
	e.ready.Set()
	return nil
}

// CancelRequest abandons a pending call locally with a cancelled failure
// and queues a best-effort CANCEL_REQUEST frame for the peer.
func (e *Engine) CancelRequest(id uint32) {
	e.abandonRequest(id)

	if err := e.cancelled.TryPut(id); err != nil && !errors.Is(err, errs.TryAgain) {
		e.log.Warn("cancellation queue", "error", err)
	}
}

// abandonRequest resolves a pending entry with a cancelled failure and
// removes it. Unknown ids are ignored: the call may have completed.
func (e *Engine) abandonRequest(id uint32) {
	e.resolveAndRemove(id, func(entry *pendingRequest) {
		entry.result.SetError(errs.New(errs.KindCancelled, "client: request cancelled"))
		e.metrics.callsCompleted.WithLabelValues(errs.KindCancelled.PortableName()).Inc()
	})
}

// failRequest resolves a pending entry with the given failure (the send
// path's error) and removes it.
func (e *Engine) failRequest(id uint32, cause error) {
	e.resolveAndRemove(id, func(entry *pendingRequest) {
		entry.result.SetError(cause)
		e.metrics.callsCompleted.WithLabelValues(errs.KindOf(cause).PortableName()).Inc()
	})
}

// setResponse hands a response payload to its pending entry. Unknown ids
// are silently discarded: the call was locally cancelled or timed out.
func (e *Engine) setResponse(id uint32, payload []byte) {
	found := e.resolveAndRemove(id, func(entry *pendingRequest) {
		entry.result.SetValue(payload)
		e.metrics.callsCompleted.WithLabelValues("ok").Inc()
	})
	if !found {
		e.log.Debug("response for unknown request id", "request_id", id)
	}
}

// resolveAndRemove runs resolve on the entry for id under pendingMu and
// removes it. Holding the lock across resolution is what makes every
// entry's resolution exactly-once: the GC, the receiver and the broadcast
// all contend on the same lock and an entry is gone before it drops.
func (e *Engine) resolveAndRemove(id uint32, resolve func(*pendingRequest)) bool {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	i := e.pending.Find(id)
	if i < 0 {
		return false
	}
	entry := e.pending.ValueAt(i)
	resolve(entry)
	e.pending.DeleteAt(i)
	e.metrics.inFlight.Dec()
	e.metrics.callLatency.Observe(time.Since(entry.startedAt).Seconds())
	return true
}

// broadcast fails every pending entry with err and clears the table.
func (e *Engine) broadcast(err error) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	n := e.pending.Len()
	for i := 0; i < n; i++ {
		entry := e.pending.ValueAt(i)
		entry.result.TrySetError(err)
		e.metrics.inFlight.Dec()
		e.metrics.callsCompleted.WithLabelValues(errs.KindOf(err).PortableName()).Inc()
	}
	e.pending.Clear()
	if n > 0 {
		e.metrics.broadcasts.Inc()
		e.log.Warn("broadcast failure to pending calls", "count", n, "error", err)
	}
}

// receive is the engine's receiver loop. It waits for the connection to
// become ready, then reads frames until an error tears the connection
// down, broadcasting that error to all pending calls.
func (e *Engine) receive() {
	defer close(e.receiverDone)

	for {
		if _, err := async.Select(e.receiverCtx, e.ready.AsyncWait()); err != nil {
			// Engine shutdown.
			return
		}

		for {
			payload, err := e.conn.Receive()
			if err != nil {
				e.handleReceiveFailure(err)
				break
			}
			e.metrics.framesReceived.Inc()
			e.metrics.bytesReceived.Add(float64(len(payload)))

			d := protocol.NewDecoder(payload)
			kind, id, err := protocol.DecodeMessageHeader(d)
			if err != nil {
				e.handleReceiveFailure(err)
				break
			}
			if kind != protocol.MessageResponse {
				e.handleReceiveFailure(errs.Newf(errs.KindDataMismatch, "client: unexpected %v message", kind))
				break
			}

			// Hand the remainder of the payload to the pending entry.
			e.setResponse(id, d.Rest())
		}

		if e.receiverCtx.IsCancelled() {
			return
		}
	}
}

// handleReceiveFailure tears the connection down and fails every pending
// call: responses for them can no longer arrive on this connection.
func (e *Engine) handleReceiveFailure(err error) {
	e.sendingMu.Lock()
	e.ready.Reset()
	e.conn.Disconnect()
	e.sendingMu.Unlock()
	e.metrics.disconnects.Inc()

	if !e.receiverCtx.IsCancelled() {
		e.log.Warn("receive failed, disconnected", "error", err)
	}
	e.broadcast(err)
}

// earliestDeadline scans pending entries for the soonest deadline.
func (e *Engine) earliestDeadline() (time.Time, bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	var earliest time.Time
	has := false
	for i := 0; i < e.pending.Len(); i++ {
		entry := e.pending.ValueAt(i)
		if entry.hasDeadline && (!has || entry.deadline.Before(earliest)) {
			earliest = entry.deadline
			has = true
		}
	}
	return earliest, has
}

// gc fails every pending entry whose deadline passed and removes it.
func (e *Engine) gc() {
	now := time.Now()
	expired := 0

	e.pendingMu.Lock()
	i := 0
	for i < e.pending.Len() {
		entry := e.pending.ValueAt(i)
		if entry.hasDeadline && entry.deadline.Before(now) {
			entry.result.TrySetError(errs.New(errs.KindDeadlineExceeded, "client: request timed out"))
			e.pending.DeleteAt(i)
			e.metrics.inFlight.Dec()
			e.metrics.callsCompleted.WithLabelValues(errs.KindDeadlineExceeded.PortableName()).Inc()
			expired++
		} else {
			i++
		}
	}
	e.pendingMu.Unlock()

	if expired > 0 {
		e.log.Info("expired pending requests", "count", expired)
	}
}

// handleTimeoutsAndCancellations is the engine's second background loop:
// it sleeps until the earliest pending deadline, a doorbell announcing a
// sooner deadline, or an out-of-band cancellation, and reacts accordingly.
// It exits when the engine closes.
func (e *Engine) handleTimeoutsAndCancellations() {
	defer close(e.handlerDone)

	for {
		doorbell := e.newDeadline.AsyncGet()
		cancelAw := e.cancelled.AsyncGet()

		gcAw := async.Never()
		if earliest, has := e.earliestDeadline(); has {
			gcAw = async.Deadline(earliest)
		}

		idx, err := async.Select(e.handlerCtx, doorbell, cancelAw, gcAw)
		if err != nil {
			// Cancelled on shutdown.
			return
		}

		switch idx {
		case 0:
			// Doorbell: just recompute the earliest deadline.
		case 1:
			if id, err := cancelAw.Result(); err == nil {
				e.sendCancelRequest(id)
			}
		case 2:
			e.gc()
		}
	}
}

// sendCancelRequest emits one CANCEL_REQUEST frame. Errors are ignored:
// the call was already abandoned locally.
func (e *Engine) sendCancelRequest(id uint32) {
	enc := protocol.NewEncoder()
	protocol.EncodeCancelRequest(enc, id)
	if err := e.send(enc.Bytes()); err != nil {
		e.log.Debug("cancel request not sent", "request_id", id, "error", err)
		return
	}
	e.metrics.cancelsSent.Inc()
}

// PendingCalls returns the number of in-flight requests.
func (e *Engine) PendingCalls() int {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	return e.pending.Len()
}
