package protocol

import "time"

// ContextRecord is the wire form of an execution context: the remaining
// time until its deadline (if any), its portable values, and its
// cancellation state. Deadlines cross process boundaries as remaining
// durations, not absolute times, so peers need no clock agreement.
type ContextRecord struct {
	HasDeadline  bool
	DeadlineLeft time.Duration
	Values       []Value
	Cancelled    bool
}

// EncodeContextRecord writes a context record.
// A negative remaining duration is clamped to zero: the deadline already
// passed, and the peer should observe an immediately-expired context.
func EncodeContextRecord(e *Encoder, rec *ContextRecord) {
	if rec.HasDeadline {
		left := rec.DeadlineLeft
		if left < 0 {
			left = 0
		}
		e.WriteBool(true)
		e.WriteUint64(uint64(left / time.Millisecond))
	} else {
		e.WriteBool(false)
	}
	EncodeValues(e, rec.Values)
	e.WriteBool(rec.Cancelled)
}

// DecodeContextRecord reads a context record.
func DecodeContextRecord(d *Decoder) (*ContextRecord, error) {
	rec := &ContextRecord{}

	hasDeadline, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasDeadline {
		ms, err := d.ReadUint64()
		if err != nil {
			return nil, err
		}
		rec.HasDeadline = true
		rec.DeadlineLeft = time.Duration(ms) * time.Millisecond
	}

	if rec.Values, err = DecodeValues(d); err != nil {
		return nil, err
	}

	if rec.Cancelled, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return rec, nil
}
