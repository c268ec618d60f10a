package packet

import (
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/strand-dev/strand/pkg/errs"
)

// WebSocketConnector dials a WebSocket endpoint and presents the
// connection as a byte-stream channel. Packets travel inside binary
// messages; message boundaries carry no meaning, the packet protocol's
// own framing delimits payloads.
type WebSocketConnector struct {
	// URL is the ws:// or wss:// endpoint to dial.
	URL string

	// HandshakeTimeout bounds the attempt. Zero means DefaultDialTimeout.
	HandshakeTimeout time.Duration
}

// Dial implements Connector.
func (c *WebSocketConnector) Dial() (Channel, error) {
	timeout := c.HandshakeTimeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(c.URL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "packet: dial websocket "+c.URL, err)
	}
	return &wsChannel{conn: conn}, nil
}

// wsChannel adapts a WebSocket connection to the stream Channel interface.
type wsChannel struct {
	conn *websocket.Conn

	readMu  sync.Mutex
	reader  io.Reader
	writeMu sync.Mutex
}

// NewWebSocketChannel wraps an established WebSocket connection as a
// stream channel. Useful on the accepting side of a connection.
func NewWebSocketChannel(conn *websocket.Conn) Channel {
	return &wsChannel{conn: conn}
}

// Read drains binary messages as one continuous byte stream.
func (ws *wsChannel) Read(p []byte) (int, error) {
	ws.readMu.Lock()
	defer ws.readMu.Unlock()

	for {
		if ws.reader == nil {
			msgType, r, err := ws.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				// Text and control payloads are not part of the stream.
				continue
			}
			ws.reader = r
		}

		n, err := ws.reader.Read(p)
		if err == io.EOF {
			// Message exhausted; continue with the next one.
			ws.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write sends p as one binary message.
func (ws *wsChannel) Write(p []byte) (int, error) {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	if err := ws.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying connection.
func (ws *wsChannel) Close() error {
	return ws.conn.Close()
}
