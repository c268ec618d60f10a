package protocol

import "github.com/strand-dev/strand/pkg/errs"

// MessageKind identifies the type of an RPC message.
type MessageKind uint8

const (
	MessageRequest       MessageKind = 0x00 // Client → peer method invocation
	MessageResponse      MessageKind = 0x01 // Peer → client result
	MessageCancelRequest MessageKind = 0x02 // Client → peer out-of-band cancellation
)

// String returns the string representation of the message kind.
func (mk MessageKind) String() string {
	switch mk {
	case MessageRequest:
		return "Request"
	case MessageResponse:
		return "Response"
	case MessageCancelRequest:
		return "CancelRequest"
	default:
		return "Unknown"
	}
}

// RequestHeader is the method-identification section of a request: which
// object, which method, the caller's view of the method signature, and the
// caller's execution context.
type RequestHeader struct {
	ObjectName    string
	MethodName    string
	SignatureHash uint64
	Context       ContextRecord
}

// EncodeRequest encodes a complete REQUEST message payload.
// Layout: kind, request id, self-delimited header block {object name,
// method name, signature hash, context record}, self-delimited args block.
func EncodeRequest(e *Encoder, requestID uint32, hdr *RequestHeader, args []byte) {
	e.WriteByte(byte(MessageRequest))
	e.WriteUint32(requestID)

	mark := e.BeginBlock()
	e.WriteString(hdr.ObjectName)
	e.WriteString(hdr.MethodName)
	e.WriteUint64(hdr.SignatureHash)
	EncodeContextRecord(e, &hdr.Context)
	e.EndBlock(mark)

	e.WriteLenBytes(args)
}

// DecodeRequestHeader decodes the header block of a REQUEST payload whose
// kind and request id have already been consumed. It returns the header and
// the raw argument bytes.
func DecodeRequestHeader(d *Decoder) (*RequestHeader, []byte, error) {
	block, err := d.ReadBlock()
	if err != nil {
		return nil, nil, err
	}

	hdr := &RequestHeader{}
	if hdr.ObjectName, err = block.ReadString(); err != nil {
		return nil, nil, err
	}
	if hdr.MethodName, err = block.ReadString(); err != nil {
		return nil, nil, err
	}
	if hdr.SignatureHash, err = block.ReadUint64(); err != nil {
		return nil, nil, err
	}
	rec, err := DecodeContextRecord(block)
	if err != nil {
		return nil, nil, err
	}
	hdr.Context = *rec

	args, err := d.ReadLenBytes()
	if err != nil {
		return nil, nil, err
	}
	return hdr, args, nil
}

// EncodeResponse encodes a complete RESPONSE message payload. The result
// bytes (see result.go) trail the header unframed.
func EncodeResponse(e *Encoder, requestID uint32, result []byte) {
	e.WriteByte(byte(MessageResponse))
	e.WriteUint32(requestID)
	e.WriteBytes(result)
}

// EncodeCancelRequest encodes a complete CANCEL_REQUEST message payload.
func EncodeCancelRequest(e *Encoder, requestID uint32) {
	e.WriteByte(byte(MessageCancelRequest))
	e.WriteUint32(requestID)
}

// DecodeMessageHeader decodes the kind tag and request id that prefix
// every message. The remainder of the payload stays in the decoder.
func DecodeMessageHeader(d *Decoder) (MessageKind, uint32, error) {
	b, err := d.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	kind := MessageKind(b)
	if kind > MessageCancelRequest {
		return 0, 0, errs.Newf(errs.KindDataMismatch, "protocol: unknown message kind 0x%02x", b)
	}
	id, err := d.ReadUint32()
	if err != nil {
		return 0, 0, err
	}
	return kind, id, nil
}
