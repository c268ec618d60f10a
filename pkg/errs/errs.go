// Package errs defines the closed set of error kinds used across the RPC
// runtime. Every kind has a stable portable name; failures travel across the
// wire as `{portable name, message}` pairs and are re-raised on the peer as
// an error of the matching kind. Equality-by-name is the cross-process ABI.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies a portable error class.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCancelled
	KindDataMismatch
	KindDeadlineExceeded
	KindEOF
	KindInternal
	KindInvalidArgument
	KindInvalidState
	KindIO
	KindNotConnected
	KindNotFound
	KindNotImplemented
	KindOutOfRange
	KindShuttingDown
	KindTryAgain
	KindUnavailable
)

// PortableName returns the stable wire name of the kind.
func (k Kind) PortableName() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindDataMismatch:
		return "data_mismatch"
	case KindDeadlineExceeded:
		return "deadline_exceeded"
	case KindEOF:
		return "eof"
	case KindInternal:
		return "internal_error"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindIO:
		return "io_error"
	case KindNotConnected:
		return "not_connected"
	case KindNotFound:
		return "not_found"
	case KindNotImplemented:
		return "not_implemented"
	case KindOutOfRange:
		return "out_of_range"
	case KindShuttingDown:
		return "shutting_down"
	case KindTryAgain:
		return "try_again"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown_error"
	}
}

// String returns the portable name.
func (k Kind) String() string { return k.PortableName() }

// Error is a failure carrying a portable kind.
type Error struct {
	kind    Kind
	msg     string
	wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.msg == "" {
		return e.kind.PortableName()
	}
	return e.kind.PortableName() + ": " + e.msg
}

// Kind returns the error's portable kind.
func (e *Error) Kind() Kind { return e.kind }

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.wrapped }

// Is reports kind equality, so errors.Is(err, errs.Cancelled) matches any
// error of the cancelled kind regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// Kind sentinels for errors.Is matching.
var (
	Unknown          = &Error{kind: KindUnknown}
	Cancelled        = &Error{kind: KindCancelled}
	DataMismatch     = &Error{kind: KindDataMismatch}
	DeadlineExceeded = &Error{kind: KindDeadlineExceeded}
	EOF              = &Error{kind: KindEOF}
	Internal         = &Error{kind: KindInternal}
	InvalidArgument  = &Error{kind: KindInvalidArgument}
	InvalidState     = &Error{kind: KindInvalidState}
	IO               = &Error{kind: KindIO}
	NotConnected     = &Error{kind: KindNotConnected}
	NotFound         = &Error{kind: KindNotFound}
	NotImplemented   = &Error{kind: KindNotImplemented}
	OutOfRange       = &Error{kind: KindOutOfRange}
	ShuttingDown     = &Error{kind: KindShuttingDown}
	TryAgain         = &Error{kind: KindTryAgain}
	Unavailable      = &Error{kind: KindUnavailable}
)

// New creates an error of the given kind.
func New(k Kind, msg string) error {
	return &Error{kind: k, msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(k Kind, format string, args ...any) error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping an underlying cause.
// The cause remains reachable through errors.Unwrap.
func Wrap(k Kind, msg string, cause error) error {
	if cause == nil {
		return New(k, msg)
	}
	return &Error{kind: k, msg: msg + ": " + cause.Error(), wrapped: cause}
}

// KindOf extracts the portable kind from an error chain.
// Errors without a kind report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Message returns the kind-less message text of an error, for wire encoding.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
