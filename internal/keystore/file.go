package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

// PassphraseEnv names the environment variable holding the key store passphrase.
const PassphraseEnv = "KANUKA_NOTES_PASSPHRASE"

// FileStore keeps each handle in its own file under Dir.
type FileStore struct {
	Dir string

	// Passphrase seals handles at rest when non-empty.
	Passphrase string
	Scrypt     ScryptParams

	mu sync.Mutex
}

// NewFileStore returns a store rooted at dir. The passphrase may be empty.
func NewFileStore(dir, passphrase string) *FileStore {
	return &FileStore{Dir: dir, Passphrase: passphrase, Scrypt: DefaultScryptParams}
}

func (s *FileStore) plainPath(name string) string  { return filepath.Join(s.Dir, name+".pem") }
func (s *FileStore) sealedPath(name string) string { return filepath.Join(s.Dir, name+".sealed") }

func (s *FileStore) Get(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.sealedPath(name))
	if err == nil {
		if s.Passphrase == "" {
			return nil, fmt.Errorf("key %s is sealed: set %s: %w", name, PassphraseEnv, kerrors.ErrWrongPassphrase)
		}
		return open(s.Passphrase, name, data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key %s: %w", name, err)
	}

	data, err = os.ReadFile(s.plainPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, kerrors.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", name, err)
	}
	return data, nil
}

func (s *FileStore) Put(name string, handle []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory %s: %w", s.Dir, err)
	}

	path, data := s.plainPath(name), handle
	stale := s.sealedPath(name)
	if s.Passphrase != "" {
		params := s.Scrypt
		if params.N == 0 {
			params = DefaultScryptParams
		}
		sealed, err := seal(s.Passphrase, name, handle, params)
		if err != nil {
			return fmt.Errorf("failed to seal key %s: %w", name, err)
		}
		path, data, stale = s.sealedPath(name), sealed, s.plainPath(name)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write key %s: %w", name, err)
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale key %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.plainPath(name), s.sealedPath(name)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove key %s: %w", name, err)
		}
	}
	return nil
}
