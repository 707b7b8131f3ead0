package errors

import (
	"errors"
	"fmt"
)

// DeviceError is the closed set of outcomes the backend reports for the key
// distribution protocol. The zero value is not a valid DeviceError.
type DeviceError int

const (
	// ErrAlreadyRegistered indicates a symmetric key is already registered for the account.
	ErrAlreadyRegistered DeviceError = iota + 1

	// ErrDeviceNotRegistered indicates the account has no registered device.
	ErrDeviceNotRegistered

	// ErrKeyNotSynchronized indicates the account key has not been wrapped for this device yet.
	ErrKeyNotSynchronized

	// ErrUnknownPublicKey indicates the backend does not recognize the public key.
	ErrUnknownPublicKey
)

var deviceErrorNames = map[DeviceError]string{
	ErrAlreadyRegistered:   "AlreadyRegistered",
	ErrDeviceNotRegistered: "DeviceNotRegistered",
	ErrKeyNotSynchronized:  "KeyNotSynchronized",
	ErrUnknownPublicKey:    "UnknownPublicKey",
}

// String returns the wire name of the error.
func (e DeviceError) String() string {
	if name, ok := deviceErrorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("DeviceError(%d)", int(e))
}

func (e DeviceError) Error() string {
	switch e {
	case ErrAlreadyRegistered:
		return "symmetric key already registered"
	case ErrDeviceNotRegistered:
		return "device not registered"
	case ErrKeyNotSynchronized:
		return "symmetric key not synchronized for this device"
	case ErrUnknownPublicKey:
		return "unknown public key"
	default:
		return e.String()
	}
}

// Fatal reports whether the outcome invalidates the device registration for
// the current session.
func (e DeviceError) Fatal() bool {
	return e == ErrDeviceNotRegistered || e == ErrUnknownPublicKey
}

// ParseDeviceError maps a wire name back to its DeviceError.
func ParseDeviceError(name string) (DeviceError, bool) {
	for e, n := range deviceErrorNames {
		if n == name {
			return e, true
		}
	}
	return 0, false
}

// AsDeviceError extracts a DeviceError from err's chain.
func AsDeviceError(err error) (DeviceError, bool) {
	var de DeviceError
	if errors.As(err, &de) {
		return de, true
	}
	return 0, false
}
