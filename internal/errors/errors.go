package errors

import "errors"

// Cryptographic errors indicate local failures that leave no side effects.
var (
	// ErrNoSymmetricKey indicates a note operation ran before the session synchronized a key.
	ErrNoSymmetricKey = errors.New("no symmetric key: session is not synchronized")

	// ErrDecryptionFailure indicates a ciphertext failed authentication or could not be parsed.
	ErrDecryptionFailure = errors.New("failed to decrypt note")

	// ErrInvalidKeyLength indicates the symmetric key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid symmetric key length")

	// ErrInvalidPublicKey indicates an exported public key could not be decoded.
	ErrInvalidPublicKey = errors.New("invalid or unsupported public key")

	// ErrInvalidPrivateKey indicates the private key is malformed or unsupported.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")

	// ErrKeyUnwrapFailed indicates a wrapped symmetric key could not be recovered.
	ErrKeyUnwrapFailed = errors.New("failed to unwrap symmetric key")
)

// Key store errors.
var (
	// ErrKeyNotFound indicates a key handle is absent from the key store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrWrongPassphrase indicates the key store passphrase is wrong or the stored key is corrupt.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key")
)

// Session errors indicate the caller used the session out of order.
var (
	// ErrNotSynced indicates the session has not reached the synced state.
	ErrNotSynced = errors.New("session is not synchronized")

	// ErrNotLoggedIn indicates no account token is configured.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrConvergenceRunning indicates a convergence task is already running for the session.
	ErrConvergenceRunning = errors.New("convergence task already running")

	// ErrInitializing indicates another initialization of the session is in flight.
	ErrInitializing = errors.New("session initialization already in progress")
)

// Backend errors that are not part of the key distribution protocol.
var (
	// ErrAnonymousAccount indicates a request carried no account token.
	ErrAnonymousAccount = errors.New("anonymous account is not allowed")

	// ErrNoteNotFound indicates the note id does not exist for the account.
	ErrNoteNotFound = errors.New("note not found")

	// ErrDeviceNotFound indicates the specified device alias could not be found.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrLastDevice indicates an attempt to remove the only device of an account.
	ErrLastDevice = errors.New("cannot remove the last device of an account")

	// ErrRateLimited indicates the backend rejected the request for exceeding its rate limit.
	ErrRateLimited = errors.New("rate limit exceeded")
)
