package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := New(KindDeadlineExceeded, "request timed out")

	if !errors.Is(err, DeadlineExceeded) {
		t.Errorf("errors.Is(err, DeadlineExceeded) = false, want true")
	}
	if errors.Is(err, Cancelled) {
		t.Errorf("errors.Is(err, Cancelled) = true, want false")
	}
	if got := KindOf(err); got != KindDeadlineExceeded {
		t.Errorf("KindOf() = %v, want %v", got, KindDeadlineExceeded)
	}
}

func TestKindMatchingThroughWrapping(t *testing.T) {
	inner := New(KindIO, "connection reset")
	outer := fmt.Errorf("send failed: %w", inner)

	if !errors.Is(outer, IO) {
		t.Errorf("errors.Is through fmt.Errorf wrap = false, want true")
	}
	if got := KindOf(outer); got != KindIO {
		t.Errorf("KindOf() = %v, want %v", got, KindIO)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindIO, "write", cause)

	if !errors.Is(err, cause) {
		t.Errorf("wrapped cause not reachable via errors.Is")
	}
	if !errors.Is(err, IO) {
		t.Errorf("kind not reachable on wrapping error")
	}
}

func TestPortableNameRoundTrip(t *testing.T) {
	for k := KindUnknown; k <= KindUnavailable; k++ {
		name := k.PortableName()
		if got := KindByName(name); got != k {
			t.Errorf("KindByName(%q) = %v, want %v", name, got, k)
		}
	}
}

func TestFromPortableUnknownName(t *testing.T) {
	err := FromPortable("some_future_kind", "whatever")
	if got := KindOf(err); got != KindUnknown {
		t.Errorf("KindOf() = %v, want KindUnknown", got)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"kinded", New(KindCancelled, "user gave up"), "user gave up"},
		{"plain", errors.New("plain failure"), "plain failure"},
		{"nil", nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Message(tc.err); got != tc.want {
				t.Errorf("Message() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("anonymous")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want KindUnknown", got)
	}
}
