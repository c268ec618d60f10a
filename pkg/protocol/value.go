package protocol

import (
	"sync"

	"github.com/strand-dev/strand/pkg/errs"
)

// Value is a polymorphic value carried inside a context record. A value
// travels as {portable class name, self-delimited body}; the portable name
// is the only identity peers agree on, so it must be stable across builds
// and processes.
type Value interface {
	// PortableClassName returns the stable wire name of the value's type.
	PortableClassName() string

	// EncodeTo writes the value's body.
	EncodeTo(e *Encoder)

	// DecodeFrom reads the value's body.
	DecodeFrom(d *Decoder) error
}

// valueRegistry maps portable class names to factories producing fresh
// zero values of the corresponding type.
var (
	valueMu       sync.RWMutex
	valueRegistry = map[string]func() Value{}
)

// RegisterValue registers a factory for a portable value type.
// Registering the same name twice panics: duplicate names would make the
// wire identity ambiguous.
func RegisterValue(name string, factory func() Value) {
	valueMu.Lock()
	defer valueMu.Unlock()
	if _, dup := valueRegistry[name]; dup {
		panic("protocol: duplicate portable value registration: " + name)
	}
	valueRegistry[name] = factory
}

// NewValue creates a fresh zero value for a portable class name.
func NewValue(name string) (Value, bool) {
	valueMu.RLock()
	defer valueMu.RUnlock()
	f, ok := valueRegistry[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// EncodeValues writes a list of portable values.
func EncodeValues(e *Encoder, values []Value) {
	e.WriteUvarint(uint64(len(values)))
	for _, v := range values {
		e.WriteString(v.PortableClassName())
		mark := e.BeginBlock()
		v.EncodeTo(e)
		e.EndBlock(mark)
	}
}

// DecodeValues reads a list of portable values. A name with no registered
// factory fails the decode with a not_found kind: the peers disagree on
// the value ABI.
func DecodeValues(d *Decoder) ([]Value, error) {
	count, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if count > MaxCollectionCount {
		return nil, ErrCollectionTooLarge
	}
	values := make([]Value, 0, count)
	for i := uint64(0); i < count; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		body, err := d.ReadBlock()
		if err != nil {
			return nil, err
		}
		v, ok := NewValue(name)
		if !ok {
			return nil, errs.Newf(errs.KindNotFound, "protocol: unregistered portable value class %q", name)
		}
		if err := v.DecodeFrom(body); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
