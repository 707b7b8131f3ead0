package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

// IVLength is the AES-GCM nonce size. Ciphertext blobs rely on it: the IV is
// prepended as exactly base64IVLength characters with no delimiter.
const IVLength = 12

var base64IVLength = base64.StdEncoding.EncodedLen(IVLength)

// EncryptNote encrypts the UTF-8 bytes of plaintext under key with AES-256-GCM
// and a fresh random IV. The result is base64(IV) followed by
// base64(ciphertext||tag). Invalid UTF-8 is replaced with U+FFFD before
// sealing, as DecryptNote does after opening.
func EncryptNote(plaintext string, key []byte) (string, error) {
	aead, err := newNoteAEAD(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, IVLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext := aead.Seal(nil, iv, []byte(strings.ToValidUTF8(plaintext, "\uFFFD")), nil)
	return base64.StdEncoding.EncodeToString(iv) + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptNote reverses EncryptNote. Any malformed, tampered or wrongly keyed
// blob fails with ErrDecryptionFailure and yields no plaintext.
func DecryptNote(data string, key []byte) (string, error) {
	aead, err := newNoteAEAD(key)
	if err != nil {
		return "", err
	}

	if len(data) < base64IVLength {
		return "", fmt.Errorf("%w: ciphertext too short", kerrors.ErrDecryptionFailure)
	}
	iv, err := base64.StdEncoding.DecodeString(data[:base64IVLength])
	if err != nil || len(iv) != IVLength {
		return "", fmt.Errorf("%w: malformed IV", kerrors.ErrDecryptionFailure)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(data[base64IVLength:])
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext", kerrors.ErrDecryptionFailure)
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", kerrors.ErrDecryptionFailure
	}
	return strings.ToValidUTF8(string(plaintext), "\uFFFD"), nil
}

func newNoteAEAD(key []byte) (cipher.AEAD, error) {
	if key == nil {
		return nil, kerrors.ErrNoSymmetricKey
	}
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, SymmetricKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
