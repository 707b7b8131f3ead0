package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDeviceError_RoundTripsByName(t *testing.T) {
	for _, de := range []DeviceError{ErrAlreadyRegistered, ErrDeviceNotRegistered, ErrKeyNotSynchronized, ErrUnknownPublicKey} {
		parsed, ok := ParseDeviceError(de.String())
		if !ok {
			t.Fatalf("ParseDeviceError(%q) not ok", de.String())
		}
		if parsed != de {
			t.Errorf("ParseDeviceError(%q) = %v, want %v", de.String(), parsed, de)
		}
	}
}

func TestParseDeviceError_Unknown(t *testing.T) {
	if _, ok := ParseDeviceError("Nope"); ok {
		t.Fatal("expected unknown name to be rejected")
	}
}

func TestAsDeviceError_Wrapped(t *testing.T) {
	err := fmt.Errorf("fetching key: %w", ErrKeyNotSynchronized)

	de, ok := AsDeviceError(err)
	if !ok || de != ErrKeyNotSynchronized {
		t.Fatalf("AsDeviceError = %v, %v", de, ok)
	}
	if !errors.Is(err, ErrKeyNotSynchronized) {
		t.Fatal("errors.Is should match a wrapped DeviceError")
	}
	if errors.Is(err, ErrUnknownPublicKey) {
		t.Fatal("errors.Is matched the wrong DeviceError")
	}
}

func TestDeviceError_Fatal(t *testing.T) {
	tests := map[DeviceError]bool{
		ErrAlreadyRegistered:   false,
		ErrDeviceNotRegistered: true,
		ErrKeyNotSynchronized:  false,
		ErrUnknownPublicKey:    true,
	}
	for de, want := range tests {
		if got := de.Fatal(); got != want {
			t.Errorf("%v.Fatal() = %v, want %v", de, got, want)
		}
	}
}
