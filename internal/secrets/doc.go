// Package secrets provides the cryptographic operations of kanuka-notes.
//
// # Encryption Architecture
//
// kanuka-notes uses a hybrid scheme, one account at a time:
//
//  1. A random 256-bit symmetric key encrypts every note (AES-256-GCM)
//  2. Each device's RSA public key wraps a copy of the symmetric key (RSA-OAEP, SHA-256)
//  3. A device unwraps its copy with its private key, then decrypts notes
//
// The backend only ever sees public keys, wrapped keys and note ciphertext.
//
// # Key Management
//
// DeviceKeyManager owns the device key pair (4096-bit RSA, exponent 65537).
// EnsureKeyPair loads both halves from a keystore.KeyStore and generates a
// fresh pair only if either half is missing. Public keys cross the wire as
// base64 of their SPKI DER encoding (ExportPublicKeyBase64); that string is
// the protocol-level device identifier. The device alias is a random UUID
// kept in an AliasStore and is only a label.
//
// # Note Format
//
// A note ciphertext is one string: base64 of a fresh 12-byte IV (always 16
// characters) immediately followed by base64 of ciphertext||tag. Decryption
// splits at the fixed IV length. The format is byte-compatible with WebCrypto
// AES-GCM clients.
package secrets
