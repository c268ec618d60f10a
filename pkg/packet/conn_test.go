package packet

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strand-dev/strand/pkg/errs"
)

// pipeConnector hands out the client half of fresh in-memory pipes and
// exposes the matching server halves for the test to drive.
type pipeConnector struct {
	dials   atomic.Int32
	servers chan net.Conn
	fail    atomic.Bool
}

func newPipeConnector() *pipeConnector {
	return &pipeConnector{servers: make(chan net.Conn, 8)}
}

func (pc *pipeConnector) Dial() (Channel, error) {
	pc.dials.Add(1)
	if pc.fail.Load() {
		return nil, errs.New(errs.KindIO, "dial refused")
	}
	client, server := net.Pipe()
	pc.servers <- server
	return client, nil
}

func TestConnConnectIsIdempotent(t *testing.T) {
	pc := newPipeConnector()
	c := NewConn(pc)

	if c.State() != StateDisconnected {
		t.Fatalf("initial state = %v, want Disconnected", c.State())
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if got := pc.dials.Load(); got != 1 {
		t.Errorf("dial count = %d, want 1", got)
	}
	if c.State() != StateConnected {
		t.Errorf("state = %v, want Connected", c.State())
	}
	c.Disconnect()
}

func TestConnConnectFailureStaysDisconnected(t *testing.T) {
	pc := newPipeConnector()
	pc.fail.Store(true)
	c := NewConn(pc)

	if err := c.Connect(); !errors.Is(err, errs.IO) {
		t.Fatalf("Connect() error = %v, want io_error", err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("state after failed connect = %v, want Disconnected", c.State())
	}

	// The next Connect retries the dial.
	pc.fail.Store(false)
	if err := c.Connect(); err != nil {
		t.Fatalf("retry Connect() error = %v", err)
	}
	if got := pc.dials.Load(); got != 2 {
		t.Errorf("dial count = %d, want 2", got)
	}
	c.Disconnect()
}

func TestConnSendReceive(t *testing.T) {
	pc := newPipeConnector()
	c := NewConn(pc)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Disconnect()
	server := <-pc.servers
	defer server.Close()

	peer := NewStreamProtocol()
	go func() {
		payload, err := peer.Receive(server)
		if err != nil {
			t.Errorf("peer Receive error = %v", err)
			return
		}
		if err := peer.Send(server, append([]byte("echo:"), payload...)); err != nil {
			t.Errorf("peer Send error = %v", err)
		}
	}()

	if err := c.Send([]byte("ping")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got, err := c.Receive()
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if string(got) != "echo:ping" {
		t.Errorf("Receive() = %q, want %q", got, "echo:ping")
	}
}

func TestConnSendWhileDisconnected(t *testing.T) {
	c := NewConn(newPipeConnector())
	if err := c.Send([]byte("x")); !errors.Is(err, errs.NotConnected) {
		t.Errorf("Send() error = %v, want not_connected", err)
	}
	if _, err := c.Receive(); !errors.Is(err, errs.NotConnected) {
		t.Errorf("Receive() error = %v, want not_connected", err)
	}
}

func TestConnDisconnectUnblocksReceive(t *testing.T) {
	pc := newPipeConnector()
	c := NewConn(pc)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	server := <-pc.servers
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		_, err := c.Receive()
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	c.Disconnect()

	select {
	case err := <-done:
		if err == nil {
			t.Errorf("Receive() returned nil after Disconnect")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Receive() still blocked after Disconnect")
	}
}

func TestConnReconnectAfterPeerClose(t *testing.T) {
	pc := newPipeConnector()
	c := NewConn(pc)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	server := <-pc.servers
	server.Close()

	// The broken channel surfaces an error on the next receive; the layer
	// above reacts by disconnecting and reconnecting.
	if _, err := c.Receive(); err == nil {
		t.Fatalf("Receive() on closed peer succeeded")
	}
	c.Disconnect()

	if err := c.Connect(); err != nil {
		t.Fatalf("reconnect error = %v", err)
	}
	if got := pc.dials.Load(); got != 2 {
		t.Errorf("dial count = %d, want 2", got)
	}
	c.Disconnect()
}
