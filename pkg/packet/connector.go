package packet

import (
	"io"
	"net"
	"time"

	"github.com/strand-dev/strand/pkg/errs"
)

// Channel is a bidirectional byte stream owned by the protocol stack.
// net.Conn satisfies it; so does the WebSocket adapter in websocket.go.
type Channel interface {
	io.Reader
	io.Writer
	io.Closer
}

// Connector produces a fresh channel on demand. A reconnectable connection
// invokes it once per (re)connection attempt.
type Connector interface {
	Dial() (Channel, error)
}

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 10 * time.Second

// TCPConnector dials a TCP endpoint.
type TCPConnector struct {
	// Addr is the host:port to dial.
	Addr string

	// Timeout bounds the attempt. Zero means DefaultDialTimeout.
	Timeout time.Duration
}

// Dial implements Connector.
func (c *TCPConnector) Dial() (Channel, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := net.DialTimeout("tcp", c.Addr, timeout)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "packet: dial tcp "+c.Addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Frames are small and latency-sensitive.
		tc.SetNoDelay(true)
	}
	return conn, nil
}

// UnixConnector dials a Unix domain socket.
type UnixConnector struct {
	// Path is the socket path to dial.
	Path string

	// Timeout bounds the attempt. Zero means DefaultDialTimeout.
	Timeout time.Duration
}

// Dial implements Connector.
func (c *UnixConnector) Dial() (Channel, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := net.DialTimeout("unix", c.Path, timeout)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "packet: dial unix "+c.Path, err)
	}
	return conn, nil
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func() (Channel, error)

// Dial implements Connector.
func (f ConnectorFunc) Dial() (Channel, error) { return f() }
