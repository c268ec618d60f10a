package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/strand-dev/strand/pkg/errs"
)

// traceTag is a portable context value used by tests.
type traceTag struct {
	ID string
}

func (tt *traceTag) PortableClassName() string { return "test.TraceTag" }
func (tt *traceTag) EncodeTo(e *Encoder)       { e.WriteString(tt.ID) }
func (tt *traceTag) DecodeFrom(d *Decoder) error {
	var err error
	tt.ID, err = d.ReadString()
	return err
}

func init() {
	RegisterValue("test.TraceTag", func() Value { return &traceTag{} })
}

func TestRequestRoundTrip(t *testing.T) {
	hdr := &RequestHeader{
		ObjectName:    "calc/adder",
		MethodName:    "Add",
		SignatureHash: SignatureHash("Add", []string{"u32", "u32"}, "u32"),
		Context: ContextRecord{
			HasDeadline:  true,
			DeadlineLeft: 1500 * time.Millisecond,
			Values:       []Value{&traceTag{ID: "abc-123"}},
		},
	}
	args := []byte{2, 0, 0, 0, 3, 0, 0, 0}

	e := NewEncoder()
	EncodeRequest(e, 17, hdr, args)

	d := NewDecoder(e.Bytes())
	kind, id, err := DecodeMessageHeader(d)
	if err != nil {
		t.Fatalf("DecodeMessageHeader() error = %v", err)
	}
	if kind != MessageRequest || id != 17 {
		t.Fatalf("header = (%v, %d), want (Request, 17)", kind, id)
	}

	got, gotArgs, err := DecodeRequestHeader(d)
	if err != nil {
		t.Fatalf("DecodeRequestHeader() error = %v", err)
	}
	if got.ObjectName != hdr.ObjectName || got.MethodName != hdr.MethodName {
		t.Errorf("names = (%q, %q), want (%q, %q)", got.ObjectName, got.MethodName, hdr.ObjectName, hdr.MethodName)
	}
	if got.SignatureHash != hdr.SignatureHash {
		t.Errorf("signature hash mismatch")
	}
	if !got.Context.HasDeadline || got.Context.DeadlineLeft != 1500*time.Millisecond {
		t.Errorf("context deadline = (%v, %v)", got.Context.HasDeadline, got.Context.DeadlineLeft)
	}
	if len(got.Context.Values) != 1 {
		t.Fatalf("context values = %d, want 1", len(got.Context.Values))
	}
	if tag, ok := got.Context.Values[0].(*traceTag); !ok || tag.ID != "abc-123" {
		t.Errorf("context value = %#v", got.Context.Values[0])
	}
	if !bytes.Equal(gotArgs, args) {
		t.Errorf("args = %v, want %v", gotArgs, args)
	}
}

func TestResponseRoundTripOK(t *testing.T) {
	result := NewEncoder()
	EncodeResultOK(result, []byte{5, 0, 0, 0})

	e := NewEncoder()
	EncodeResponse(e, 3, result.Bytes())

	d := NewDecoder(e.Bytes())
	kind, id, err := DecodeMessageHeader(d)
	if err != nil {
		t.Fatalf("DecodeMessageHeader() error = %v", err)
	}
	if kind != MessageResponse || id != 3 {
		t.Fatalf("header = (%v, %d), want (Response, 3)", kind, id)
	}

	value, err := DecodeResult(d)
	if err != nil {
		t.Fatalf("DecodeResult() error = %v", err)
	}
	if !bytes.Equal(value, []byte{5, 0, 0, 0}) {
		t.Errorf("value = %v, want [5 0 0 0]", value)
	}
}

func TestResponseRoundTripError(t *testing.T) {
	result := NewEncoder()
	EncodeResultErr(result, errs.New(errs.KindNotFound, "no such object"))

	d := NewDecoder(result.Bytes())
	_, err := DecodeResult(d)
	if err == nil {
		t.Fatalf("DecodeResult() error = nil, want not_found")
	}
	if !errors.Is(err, errs.NotFound) {
		t.Errorf("re-raised kind = %v, want not_found", errs.KindOf(err))
	}
	if errs.Message(err) != "no such object" {
		t.Errorf("message = %q, want %q", errs.Message(err), "no such object")
	}
}

func TestCancelRequestRoundTrip(t *testing.T) {
	e := NewEncoder()
	EncodeCancelRequest(e, 99)

	d := NewDecoder(e.Bytes())
	kind, id, err := DecodeMessageHeader(d)
	if err != nil {
		t.Fatalf("DecodeMessageHeader() error = %v", err)
	}
	if kind != MessageCancelRequest || id != 99 {
		t.Errorf("header = (%v, %d), want (CancelRequest, 99)", kind, id)
	}
	if !d.EOF() {
		t.Errorf("cancel request carries %d trailing bytes", d.Remaining())
	}
}

func TestUnknownMessageKind(t *testing.T) {
	d := NewDecoder([]byte{0x7F, 0, 0, 0, 0})
	if _, _, err := DecodeMessageHeader(d); !errors.Is(err, errs.DataMismatch) {
		t.Errorf("unknown kind error = %v, want data_mismatch", err)
	}
}

func TestContextRecordNoDeadline(t *testing.T) {
	e := NewEncoder()
	EncodeContextRecord(e, &ContextRecord{Cancelled: true})

	rec, err := DecodeContextRecord(NewDecoder(e.Bytes()))
	if err != nil {
		t.Fatalf("DecodeContextRecord() error = %v", err)
	}
	if rec.HasDeadline {
		t.Errorf("HasDeadline = true, want false")
	}
	if !rec.Cancelled {
		t.Errorf("Cancelled = false, want true")
	}
	if len(rec.Values) != 0 {
		t.Errorf("Values = %d, want 0", len(rec.Values))
	}
}

func TestContextRecordClampsPastDeadline(t *testing.T) {
	e := NewEncoder()
	EncodeContextRecord(e, &ContextRecord{HasDeadline: true, DeadlineLeft: -5 * time.Second})

	rec, err := DecodeContextRecord(NewDecoder(e.Bytes()))
	if err != nil {
		t.Fatalf("DecodeContextRecord() error = %v", err)
	}
	if !rec.HasDeadline || rec.DeadlineLeft != 0 {
		t.Errorf("record = (%v, %v), want (true, 0)", rec.HasDeadline, rec.DeadlineLeft)
	}
}

func TestDecodeValuesUnregisteredClass(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteString("test.NeverRegistered")
	e.WriteLenBytes([]byte{1, 2, 3})

	if _, err := DecodeValues(NewDecoder(e.Bytes())); !errors.Is(err, errs.NotFound) {
		t.Errorf("unregistered class error = %v, want not_found", err)
	}
}

func FuzzDecodeRequest(f *testing.F) {
	seed := NewEncoder()
	EncodeRequest(seed, 1, &RequestHeader{
		ObjectName:    "obj",
		MethodName:    "m",
		SignatureHash: 42,
	}, []byte("args"))
	f.Add(seed.Bytes())
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x01})

	f.Fuzz(func(t *testing.T, data []byte) {
		d := NewDecoder(data)
		kind, _, err := DecodeMessageHeader(d)
		if err != nil {
			return
		}
		if kind == MessageRequest {
			// Must never panic, whatever the bytes.
			DecodeRequestHeader(d)
		}
	})
}
