package packet

import (
	"sync"

	"github.com/strand-dev/strand/pkg/errs"
)

// State is the lifecycle state of a reconnectable connection.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Conn is a reconnectable packet connection: a connector that can produce
// a channel on demand, layered under the packet protocol. Connect is lazy
// and idempotent; Disconnect closes the channel and unblocks any pending
// receive; after an error the next Connect transparently redials.
type Conn struct {
	connector Connector
	protocol  *StreamProtocol

	mu    sync.Mutex
	ch    Channel
	state State
}

// NewConn creates a disconnected connection over the given connector.
func NewConn(connector Connector) *Conn {
	return &Conn{
		connector: connector,
		protocol:  NewStreamProtocol(),
	}
}

// NewConnWithProtocol creates a disconnected connection with a custom
// protocol instance (e.g. a different payload bound).
func NewConnWithProtocol(connector Connector, protocol *StreamProtocol) *Conn {
	return &Conn{connector: connector, protocol: protocol}
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether a channel is currently open.
func (c *Conn) Connected() bool {
	return c.State() == StateConnected
}

// Connect ensures an open channel, dialing if necessary. On failure the
// connection stays disconnected and the dial error is returned.
func (c *Conn) Connect() error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	// Dial outside the lock: a slow connect must not block Disconnect.
	ch, err := c.connector.Dial()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateDisconnected
		return err
	}
	if c.state != StateConnecting {
		// Disconnected while dialing; discard the fresh channel.
		ch.Close()
		return errs.New(errs.KindNotConnected, "packet: disconnected during connect")
	}
	c.ch = ch
	c.state = StateConnected
	return nil
}

// Disconnect closes the channel, if any, and returns the connection to
// the disconnected state. Any blocked receive fails with an I/O error.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	ch := c.ch
	c.ch = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
}

// channel returns the open channel or a not_connected error.
func (c *Conn) channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.ch == nil {
		return nil, errs.New(errs.KindNotConnected, "packet: connection is closed")
	}
	return c.ch, nil
}

// Send writes one packet on the open channel.
func (c *Conn) Send(payload []byte) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}
	return c.protocol.Send(ch, payload)
}

// Receive reads one packet from the open channel.
func (c *Conn) Receive() ([]byte, error) {
	ch, err := c.channel()
	if err != nil {
		return nil, err
	}
	return c.protocol.Receive(ch)
}
