package modemerr

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(KindGnssNotFixed)
	if !Is(err, KindGnssNotFixed) {
		t.Errorf("Is(err, KindGnssNotFixed) = false, want true")
	}
	if Is(err, KindGnssModuleOff) {
		t.Errorf("Is(err, KindGnssModuleOff) = true, want false")
	}
}

func TestIsUnwrapsCause(t *testing.T) {
	inner := New(KindUart)
	outer := Wrap(KindGprsConnectionOpenFailed, inner)

	if !Is(outer, KindGprsConnectionOpenFailed) {
		t.Errorf("Is(outer, KindGprsConnectionOpenFailed) = false, want true")
	}
	if !Is(outer, KindUart) {
		t.Errorf("Is(outer, KindUart) = false, want true")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("device busy")
	err := Wrap(KindUart, cause)

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
}

func TestNotResolvedSentinel(t *testing.T) {
	if !Is(NotResolved, KindNotResolved) {
		t.Errorf("Is(NotResolved, KindNotResolved) = false, want true")
	}
}
