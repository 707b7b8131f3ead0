package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"runtime"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

// SymmetricKeySize is the length of the account content key (AES-256).
const SymmetricKeySize = 32

// CreateSymmetricKey generates a new random symmetric key.
func CreateSymmetricKey() ([]byte, error) {
	symKey := make([]byte, SymmetricKeySize)
	if _, err := rand.Read(symKey); err != nil {
		return nil, err
	}
	return symKey, nil
}

// WrapSymmetricKey encrypts symKey under publicKey with RSA-OAEP/SHA-256 and
// returns the base64 text of the result.
func WrapSymmetricKey(symKey []byte, publicKey *rsa.PublicKey) (string, error) {
	if len(symKey) != SymmetricKeySize {
		return "", fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, SymmetricKeySize, len(symKey))
	}
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, symKey, nil)
	if err != nil {
		return "", fmt.Errorf("failed to wrap symmetric key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// UnwrapSymmetricKey reverses WrapSymmetricKey with the matching private key.
func UnwrapSymmetricKey(wrappedBase64 string, privateKey *rsa.PrivateKey) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(wrappedBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyUnwrapFailed, err)
	}
	symKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, privateKey, wrapped, nil)
	if err != nil {
		return nil, kerrors.ErrKeyUnwrapFailed
	}
	if len(symKey) != SymmetricKeySize {
		Wipe(symKey)
		return nil, fmt.Errorf("%w: unwrapped %d bytes", kerrors.ErrInvalidKeyLength, len(symKey))
	}
	return symKey, nil
}

// Fingerprint returns a short, stable hex digest of an exported public key
// for display.
func Fingerprint(exportedPublicKey string) string {
	sum := sha512.Sum512_256([]byte(exportedPublicKey))
	return hex.EncodeToString(sum[:8])
}

// Wipe zeroes b. Best effort: the runtime may have copied it elsewhere.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
