package packet

import (
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/strand-dev/strand/pkg/errs"
)

const (
	// headerSize is the length prefix width.
	headerSize = 4

	// checksumSize is the integrity check width.
	checksumSize = 8

	// MaxPayloadSize is the hard ceiling on a packet payload (2^31 - 1).
	MaxPayloadSize = 1<<31 - 1

	// DefaultMaxPayloadSize bounds payloads unless configured otherwise
	// (16MB). A length prefix above the bound is treated as corruption.
	DefaultMaxPayloadSize = 16 * 1024 * 1024
)

// StreamProtocol frames arbitrary-length byte payloads over a stream
// channel as [length u32][payload][checksum]. Concurrent sends are
// serialized by an internal lock, as are concurrent receives; a send never
// blocks a receive.
type StreamProtocol struct {
	maxPayload uint32

	sendMu sync.Mutex
	recvMu sync.Mutex
}

// NewStreamProtocol creates a protocol instance with the default payload
// bound.
func NewStreamProtocol() *StreamProtocol {
	return &StreamProtocol{maxPayload: DefaultMaxPayloadSize}
}

// NewStreamProtocolWithLimit creates a protocol instance with a custom
// payload bound. The bound is clamped to MaxPayloadSize.
func NewStreamProtocolWithLimit(maxPayload uint32) *StreamProtocol {
	if maxPayload > MaxPayloadSize {
		maxPayload = MaxPayloadSize
	}
	return &StreamProtocol{maxPayload: maxPayload}
}

// Send writes one packet. The frame is assembled into a single buffer and
// written atomically with respect to other senders.
func (p *StreamProtocol) Send(ch Channel, payload []byte) error {
	if len(payload) > int(p.maxPayload) {
		return errs.Newf(errs.KindInvalidArgument, "packet: payload of %d bytes exceeds limit", len(payload))
	}

	buf := make([]byte, headerSize+len(payload)+checksumSize)
	length := uint32(len(payload))
	buf[0] = byte(length)
	buf[1] = byte(length >> 8)
	buf[2] = byte(length >> 16)
	buf[3] = byte(length >> 24)
	copy(buf[headerSize:], payload)

	sum := xxhash.Sum64(buf[:headerSize+len(payload)])
	for i := 0; i < checksumSize; i++ {
		buf[headerSize+len(payload)+i] = byte(sum)
		sum >>= 8
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if _, err := ch.Write(buf); err != nil {
		return errs.Wrap(errs.KindIO, "packet: write", err)
	}
	return nil
}

// Receive reads one packet, verifying length and checksum. A checksum or
// length mismatch fails with the data_mismatch kind; a cleanly closed
// stream before the first header byte fails with the eof kind; everything
// else is an io_error.
func (p *StreamProtocol) Receive(ch Channel) ([]byte, error) {
	p.recvMu.Lock()
	defer p.recvMu.Unlock()

	var hdr [headerSize]byte
	if _, err := io.ReadFull(ch, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, errs.New(errs.KindEOF, "packet: stream closed")
		}
		return nil, errs.Wrap(errs.KindIO, "packet: read header", err)
	}

	length := uint32(hdr[0]) | uint32(hdr[1])<<8 | uint32(hdr[2])<<16 | uint32(hdr[3])<<24
	if length > p.maxPayload {
		return nil, errs.Newf(errs.KindDataMismatch, "packet: length %d exceeds limit %d", length, p.maxPayload)
	}

	body := make([]byte, int(length)+checksumSize)
	if _, err := io.ReadFull(ch, body); err != nil {
		return nil, errs.Wrap(errs.KindIO, "packet: read body", err)
	}
	payload := body[:length]

	digest := xxhash.New()
	digest.Write(hdr[:])
	digest.Write(payload)
	sum := digest.Sum64()
	for i := 0; i < checksumSize; i++ {
		if body[int(length)+i] != byte(sum) {
			return nil, errs.New(errs.KindDataMismatch, "packet: checksum mismatch")
		}
		sum >>= 8
	}

	return payload, nil
}
