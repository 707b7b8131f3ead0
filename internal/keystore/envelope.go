package keystore

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// envelopeVersion is the current sealed handle format.
const envelopeVersion = 1

// ScryptParams tunes the passphrase key derivation.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams matches the interactive-login recommendation.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1}

// envelope is the on-disk JSON structure of a sealed handle.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// seal encrypts raw under a key derived from passphrase. The handle name is
// bound as additional data so sealed files cannot be swapped.
func seal(passphrase, name string, raw []byte, params ScryptParams) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return json.Marshal(envelope{
		V:      envelopeVersion,
		Salt:   salt,
		N:      params.N,
		R:      params.R,
		P:      params.P,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, raw, []byte(name)),
	})
}

// open reverses seal.
func open(passphrase, name string, data []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding sealed key: %w", err)
	}
	if env.V > envelopeVersion {
		return nil, fmt.Errorf("unsupported sealed key version %d", env.V)
	}

	key, err := scrypt.Key([]byte(passphrase), env.Salt, env.N, env.R, env.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, kerrors.ErrWrongPassphrase
	}
	raw, err := aead.Open(nil, env.Nonce, env.Cipher, []byte(name))
	if err != nil {
		return nil, kerrors.ErrWrongPassphrase
	}
	return raw, nil
}
