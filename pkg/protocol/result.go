package protocol

import "github.com/strand-dev/strand/pkg/errs"

// Result tags. A response trailer is either a value or a portable error.
const (
	resultOK  = 0x00
	resultErr = 0x01
)

// EncodeResultOK writes a successful result carrying the encoded return
// value.
func EncodeResultOK(e *Encoder, value []byte) {
	e.WriteByte(resultOK)
	e.WriteBytes(value)
}

// EncodeResultErr writes a failed result. The error's portable kind name
// and message cross the wire; the caller re-raises a matching kind.
func EncodeResultErr(e *Encoder, err error) {
	e.WriteByte(resultErr)
	e.WriteString(errs.KindOf(err).PortableName())
	e.WriteString(errs.Message(err))
}

// DecodeResult reads a result trailer. On tag=ok it returns the raw value
// bytes; on tag=err it reconstructs the peer's failure by portable name.
func DecodeResult(d *Decoder) ([]byte, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case resultOK:
		return d.Rest(), nil
	case resultErr:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		msg, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return nil, errs.FromPortable(name, msg)
	default:
		return nil, errs.Newf(errs.KindDataMismatch, "protocol: unknown result tag 0x%02x", tag)
	}
}
