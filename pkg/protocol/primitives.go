package protocol

// Marshaler is anything that can write itself to an encoder. Method
// arguments and return values implement it.
type Marshaler interface {
	EncodeTo(e *Encoder)
}

// Unmarshaler is anything that can read itself from a decoder.
type Unmarshaler interface {
	DecodeFrom(d *Decoder) error
}

// Wire wrappers for primitive types, so plain values can travel as method
// arguments and results without a reflection-based codec. Each wrapper's
// wire name (used in signature hashing) is the lowercase type tag.

// U32 is a wire uint32.
type U32 uint32

// EncodeTo implements Marshaler.
func (v U32) EncodeTo(e *Encoder) { e.WriteUint32(uint32(v)) }

// DecodeFrom implements Unmarshaler.
func (v *U32) DecodeFrom(d *Decoder) error {
	x, err := d.ReadUint32()
	*v = U32(x)
	return err
}

// U64 is a wire uint64.
type U64 uint64

// EncodeTo implements Marshaler.
func (v U64) EncodeTo(e *Encoder) { e.WriteUint64(uint64(v)) }

// DecodeFrom implements Unmarshaler.
func (v *U64) DecodeFrom(d *Decoder) error {
	x, err := d.ReadUint64()
	*v = U64(x)
	return err
}

// I64 is a wire int64.
type I64 int64

// EncodeTo implements Marshaler.
func (v I64) EncodeTo(e *Encoder) { e.WriteInt64(int64(v)) }

// DecodeFrom implements Unmarshaler.
func (v *I64) DecodeFrom(d *Decoder) error {
	x, err := d.ReadInt64()
	*v = I64(x)
	return err
}

// F64 is a wire float64.
type F64 float64

// EncodeTo implements Marshaler.
func (v F64) EncodeTo(e *Encoder) { e.WriteFloat64(float64(v)) }

// DecodeFrom implements Unmarshaler.
func (v *F64) DecodeFrom(d *Decoder) error {
	x, err := d.ReadFloat64()
	*v = F64(x)
	return err
}

// Bool is a wire boolean.
type Bool bool

// EncodeTo implements Marshaler.
func (v Bool) EncodeTo(e *Encoder) { e.WriteBool(bool(v)) }

// DecodeFrom implements Unmarshaler.
func (v *Bool) DecodeFrom(d *Decoder) error {
	x, err := d.ReadBool()
	*v = Bool(x)
	return err
}

// Str is a wire string.
type Str string

// EncodeTo implements Marshaler.
func (v Str) EncodeTo(e *Encoder) { e.WriteString(string(v)) }

// DecodeFrom implements Unmarshaler.
func (v *Str) DecodeFrom(d *Decoder) error {
	x, err := d.ReadString()
	*v = Str(x)
	return err
}

// Bytes is a wire byte block.
type Bytes []byte

// EncodeTo implements Marshaler.
func (v Bytes) EncodeTo(e *Encoder) { e.WriteLenBytes(v) }

// DecodeFrom implements Unmarshaler.
func (v *Bytes) DecodeFrom(d *Decoder) error {
	x, err := d.ReadLenBytes()
	if err != nil {
		return err
	}
	*v = append((*v)[:0], x...)
	return nil
}

// Unit is the empty result of a method that returns nothing.
type Unit struct{}

// EncodeTo implements Marshaler.
func (Unit) EncodeTo(e *Encoder) {}

// DecodeFrom implements Unmarshaler.
func (*Unit) DecodeFrom(d *Decoder) error { return nil }

// EncodeArgs encodes an ordered argument tuple into one buffer.
func EncodeArgs(args ...Marshaler) []byte {
	e := NewEncoder()
	for _, a := range args {
		a.EncodeTo(e)
	}
	return e.Bytes()
}

// DecodeArgs decodes an ordered argument tuple in place.
func DecodeArgs(data []byte, args ...Unmarshaler) error {
	d := NewDecoder(data)
	for _, a := range args {
		if err := a.DecodeFrom(d); err != nil {
			return err
		}
	}
	return nil
}
