// Package errors provides typed error values for kanuka-notes.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Crypto errors: local failures with no side effects (ErrNoSymmetricKey, ErrDecryptionFailure)
//   - Key store errors: missing or unreadable key handles (ErrKeyNotFound)
//   - Session errors: operations used out of order (ErrNotSynced, ErrNotLoggedIn)
//   - Backend errors: non-protocol backend failures (ErrNoteNotFound, ErrRateLimited)
//
// # Protocol Outcomes
//
// The key distribution protocol reports a closed set of outcomes as a
// DeviceError. Callers switch over every value rather than probing for
// individual names:
//
//	switch de, _ := kerrors.AsDeviceError(err); de {
//	case kerrors.ErrKeyNotSynchronized:
//	    // wait for another device to serve us
//	case kerrors.ErrAlreadyRegistered:
//	    // another device won the bootstrap race
//	case kerrors.ErrUnknownPublicKey, kerrors.ErrDeviceNotRegistered:
//	    return err
//	}
//
// DeviceError values travel over the wire by name (see String and
// ParseDeviceError) and compare equal with errors.Is after a round trip.
package errors
