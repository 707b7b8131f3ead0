// Package keystore persists this device's key handles.
//
// A KeyStore maps a fixed set of names (PublicKeyName, PrivateKeyName) to
// opaque key handles. Handles are PEM-encoded bytes; the secrets package
// owns their format. Stores survive process restarts and are cleared on
// logout.
//
// FileStore writes one file per handle under a directory with 0600
// permissions. When a passphrase is configured, handles are sealed with
// ChaCha20-Poly1305 under a scrypt-derived key before they touch the disk.
// MemoryStore keeps handles in memory for tests and ephemeral sessions.
package keystore
