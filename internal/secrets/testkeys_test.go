package secrets

import (
	"crypto/rsa"
	"sync"
	"testing"
)

// testKeyBits keeps key generation fast; wrapping logic is size independent.
const testKeyBits = 2048

var (
	testKeysOnce sync.Once
	testKeys     [2]*rsa.PrivateKey
	testKeysErr  error
)

// sharedTestKeys returns two RSA keys generated once per test binary.
func sharedTestKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	testKeysOnce.Do(func() {
		for i := range testKeys {
			testKeys[i], testKeysErr = GenerateRSAKeyPair(testKeyBits)
			if testKeysErr != nil {
				return
			}
		}
	})
	if testKeysErr != nil {
		t.Fatalf("Failed to generate test keys: %v", testKeysErr)
	}
	return testKeys[0], testKeys[1]
}

// memoryAliases is an in-memory AliasStore.
type memoryAliases struct {
	alias   string
	sets    int
	removed bool
}

func (m *memoryAliases) Alias() (string, error) { return m.alias, nil }

func (m *memoryAliases) SetAlias(alias string) error {
	m.alias = alias
	m.sets++
	return nil
}

func (m *memoryAliases) RemoveAlias() error {
	m.alias = ""
	m.removed = true
	return nil
}
