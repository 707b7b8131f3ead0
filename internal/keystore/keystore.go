package keystore

import (
	"sync"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

// Names of the handles the device key manager stores.
const (
	PublicKeyName  = "publicKey"
	PrivateKeyName = "privateKey"
)

// KeyStore is a persistent map from names to key handles.
type KeyStore interface {
	// Get returns the handle stored under name, or kerrors.ErrKeyNotFound.
	Get(name string) ([]byte, error)
	Put(name string, handle []byte) error
	// Clear removes the handle; clearing a missing name is not an error.
	Clear(name string) error
}

// ClearAll removes every handle the device key manager owns.
func ClearAll(ks KeyStore) error {
	for _, name := range []string{PublicKeyName, PrivateKeyName} {
		if err := ks.Clear(name); err != nil {
			return err
		}
	}
	return nil
}

// MemoryStore is an in-memory KeyStore.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string][]byte)}
}

func (s *MemoryStore) Get(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.keys[name]
	if !ok {
		return nil, kerrors.ErrKeyNotFound
	}
	return append([]byte(nil), handle...), nil
}

func (s *MemoryStore) Put(name string, handle []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[name] = append([]byte(nil), handle...)
	return nil
}

func (s *MemoryStore) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, name)
	return nil
}

var (
	_ KeyStore = (*MemoryStore)(nil)
	_ KeyStore = (*FileStore)(nil)
)
