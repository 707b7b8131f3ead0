package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/keystore"

	"github.com/google/uuid"
)

// DefaultKeyBits is the modulus size of device key pairs.
const DefaultKeyBits = 4096

// KeyPair is this device's asymmetric identity. Both halves are generated
// and persisted together.
type KeyPair struct {
	Public  *rsa.PublicKey
	Private *rsa.PrivateKey
}

// AliasStore is the device-local string store holding the device alias.
type AliasStore interface {
	// Alias returns the stored alias, or "" if none is set.
	Alias() (string, error)
	SetAlias(alias string) error
	RemoveAlias() error
}

// DeviceKeyManager owns this device's key pair and alias.
type DeviceKeyManager struct {
	Keys    keystore.KeyStore
	Aliases AliasStore

	// KeyBits overrides DefaultKeyBits when non-zero.
	KeyBits int
}

func NewDeviceKeyManager(keys keystore.KeyStore, aliases AliasStore) *DeviceKeyManager {
	return &DeviceKeyManager{Keys: keys, Aliases: aliases}
}

// EnsureKeyPair loads the key pair from the key store. If either half is
// missing a fresh pair is generated and both halves are stored. An existing
// complete pair is never replaced.
func (m *DeviceKeyManager) EnsureKeyPair() (*KeyPair, error) {
	pair, err := m.LoadKeyPair()
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, kerrors.ErrKeyNotFound) {
		return nil, err
	}

	bits := m.KeyBits
	if bits == 0 {
		bits = DefaultKeyBits
	}
	privateKey, err := GenerateRSAKeyPair(bits)
	if err != nil {
		return nil, err
	}

	pubPEM, err := MarshalPublicKeyPEM(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := m.Keys.Put(keystore.PrivateKeyName, MarshalPrivateKeyPEM(privateKey)); err != nil {
		return nil, fmt.Errorf("failed to store private key: %w", err)
	}
	if err := m.Keys.Put(keystore.PublicKeyName, pubPEM); err != nil {
		return nil, fmt.Errorf("failed to store public key: %w", err)
	}

	return &KeyPair{Public: &privateKey.PublicKey, Private: privateKey}, nil
}

// LoadKeyPair returns the stored key pair without generating one. It fails
// with ErrKeyNotFound if either half is missing.
func (m *DeviceKeyManager) LoadKeyPair() (*KeyPair, error) {
	privPEM, err := m.Keys.Get(keystore.PrivateKeyName)
	if err != nil {
		return nil, err
	}
	pubPEM, err := m.Keys.Get(keystore.PublicKeyName)
	if err != nil {
		return nil, err
	}

	privateKey, err := ParsePrivateKeyPEM(privPEM)
	if err != nil {
		return nil, err
	}
	publicKey, err := ParsePublicKeyPEM(pubPEM)
	if err != nil {
		return nil, err
	}
	if !privateKey.PublicKey.Equal(publicKey) {
		return nil, fmt.Errorf("stored public key does not match private key: %w", kerrors.ErrInvalidPrivateKey)
	}
	return &KeyPair{Public: publicKey, Private: privateKey}, nil
}

// DeviceAlias returns the stored alias, generating and storing one on first use.
func (m *DeviceKeyManager) DeviceAlias() (string, error) {
	alias, err := m.Aliases.Alias()
	if err != nil {
		return "", fmt.Errorf("failed to load device alias: %w", err)
	}
	if alias != "" {
		return alias, nil
	}

	alias = uuid.New().String()
	if err := m.Aliases.SetAlias(alias); err != nil {
		return "", fmt.Errorf("failed to save device alias: %w", err)
	}
	return alias, nil
}

// Clear removes both key halves and the device alias.
func (m *DeviceKeyManager) Clear() error {
	if err := keystore.ClearAll(m.Keys); err != nil {
		return fmt.Errorf("failed to clear keys: %w", err)
	}
	if err := m.Aliases.RemoveAlias(); err != nil {
		return fmt.Errorf("failed to clear device alias: %w", err)
	}
	return nil
}

// GenerateRSAKeyPair creates a new RSA key with public exponent 65537.
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, nil
}

// ExportPublicKeyBase64 encodes the public key as base64 of its SPKI (PKIX)
// DER form. The result identifies the device in every protocol message.
func ExportPublicKeyBase64(publicKey *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ImportPublicKeyBase64 reverses ExportPublicKeyBase64.
func ImportPublicKeyBase64(exported string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(exported)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	return parsePKIXPublicKey(der)
}

// MarshalPrivateKeyPEM encodes the key as a PKCS#1 "RSA PRIVATE KEY" block.
func MarshalPrivateKeyPEM(privateKey *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
}

// ParsePrivateKeyPEM decodes an "RSA PRIVATE KEY" block.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing private key: %w", kerrors.ErrInvalidPrivateKey)
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	return privateKey, nil
}

// MarshalPublicKeyPEM encodes the key as a PKIX "PUBLIC KEY" block.
func MarshalPublicKeyPEM(publicKey *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParsePublicKeyPEM decodes a "PUBLIC KEY" block holding an RSA key.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing public key: %w", kerrors.ErrInvalidPublicKey)
	}
	return parsePKIXPublicKey(block.Bytes)
}

func parsePKIXPublicKey(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key: %w", kerrors.ErrInvalidPublicKey)
	}
	return rsaPub, nil
}
