package backend

import "context"

// Note is one encrypted note as stored by the backend.
type Note struct {
	ID   uint64 `json:"id"`
	Data string `json:"data"`
}

// WrappedKey is the account symmetric key wrapped for one device public key.
type WrappedKey struct {
	PublicKey  string `json:"public_key"`
	WrappedKey string `json:"wrapped_key"`
}

// KeyDistribution is the part of the backend the key synchronization
// protocol depends on. All keys cross the boundary as base64 text.
type KeyDistribution interface {
	// RegisterDevice records alias with its exported public key. Registering
	// an alias again succeeds and keeps the first public key.
	RegisterDevice(ctx context.Context, alias, publicKey string) error
	GetDeviceAliases(ctx context.Context) ([]string, error)
	IsEncryptedSymmetricKeyRegistered(ctx context.Context) (bool, error)
	// RegisterEncryptedSymmetricKey fails with ErrDeviceNotRegistered,
	// ErrUnknownPublicKey or ErrAlreadyRegistered.
	RegisterEncryptedSymmetricKey(ctx context.Context, publicKey, wrappedKey string) error
	// GetEncryptedSymmetricKey fails with ErrDeviceNotRegistered,
	// ErrUnknownPublicKey or ErrKeyNotSynchronized.
	GetEncryptedSymmetricKey(ctx context.Context, publicKey string) (string, error)
	GetUnsyncedPublicKeys(ctx context.Context) ([]string, error)
	// UploadEncryptedSymmetricKeys fails with ErrDeviceNotRegistered or
	// ErrUnknownPublicKey, in which case nothing is stored.
	UploadEncryptedSymmetricKeys(ctx context.Context, keys []WrappedKey) error
}

// NoteStore holds the account's encrypted notes.
type NoteStore interface {
	GetNotes(ctx context.Context) ([]Note, error)
	AddNote(ctx context.Context, data string) (uint64, error)
	UpdateNote(ctx context.Context, id uint64, data string) error
	DeleteNote(ctx context.Context, id uint64) error
}

// Service is the full backend surface for one account.
type Service interface {
	KeyDistribution
	NoteStore
	DeleteDevice(ctx context.Context, alias string) error
}
