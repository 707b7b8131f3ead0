package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

type accountRecord struct {
	// Aliases maps device alias to exported public key.
	Aliases map[string]string `json:"aliases"`
	// Keys maps exported public key to the wrapped symmetric key.
	Keys  map[string]string `json:"keys"`
	Notes []Note            `json:"notes"`
}

func newAccountRecord() *accountRecord {
	return &accountRecord{
		Aliases: make(map[string]string),
		Keys:    make(map[string]string),
	}
}

func (a *accountRecord) hasPublicKey(publicKey string) bool {
	for _, k := range a.Aliases {
		if k == publicKey {
			return true
		}
	}
	return false
}

// MemoryStore is the reference backend. It keeps every account in memory and,
// when opened with a path, rewrites a JSON snapshot after each mutation.
// It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	path string

	Accounts map[string]*accountRecord `json:"accounts"`
	// NextNoteID is shared by all accounts so ids are never reused.
	NextNoteID uint64 `json:"next_note_id"`
}

// NewMemoryStore returns a store without persistence.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Accounts: make(map[string]*accountRecord)}
}

// OpenMemoryStore loads the snapshot at path if it exists. A missing file
// yields an empty store that will be written on the first mutation.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	s := NewMemoryStore()
	s.path = path
	if path == "" {
		return s, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backend state: %w", err)
	}
	if err := s.restore(b); err != nil {
		return nil, fmt.Errorf("failed to parse backend state %s: %w", path, err)
	}
	return s, nil
}

// restore replaces the store contents with a JSON snapshot.
func (s *MemoryStore) restore(snapshot []byte) error {
	s.Accounts = nil
	s.NextNoteID = 0
	if err := json.Unmarshal(snapshot, s); err != nil {
		return err
	}
	if s.Accounts == nil {
		s.Accounts = make(map[string]*accountRecord)
	}
	for _, a := range s.Accounts {
		if a.Aliases == nil {
			a.Aliases = make(map[string]string)
		}
		if a.Keys == nil {
			a.Keys = make(map[string]string)
		}
	}
	return nil
}

// withWrite runs fn under the write lock and persists the store if fn
// succeeds. When the snapshot cannot be written the mutation is rolled back,
// so a failed call leaves no trace and can be retried.
func (s *MemoryStore) withWrite(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return fn()
	}

	before, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to snapshot backend state: %w", err)
	}
	if err := fn(); err != nil {
		return err
	}
	if err := s.save(); err != nil {
		if rerr := s.restore(before); rerr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back backend state: %w", rerr))
		}
		return err
	}
	return nil
}

func (s *MemoryStore) save() error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return fmt.Errorf("failed to write backend state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func checkAccount(account string) error {
	if account == "" {
		return kerrors.ErrAnonymousAccount
	}
	return nil
}

// RegisterDevice adds alias to the account, creating the account on first use.
// An alias that is already registered keeps its original public key.
func (s *MemoryStore) RegisterDevice(account, alias, publicKey string) error {
	if err := checkAccount(account); err != nil {
		return err
	}
	return s.withWrite(func() error {
		a, ok := s.Accounts[account]
		if !ok {
			a = newAccountRecord()
			s.Accounts[account] = a
		}
		if _, exists := a.Aliases[alias]; !exists {
			a.Aliases[alias] = publicKey
		}
		return nil
	})
}

// GetDeviceAliases returns the account's aliases in sorted order.
func (s *MemoryStore) GetDeviceAliases(account string) ([]string, error) {
	if err := checkAccount(account); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	aliases := []string{}
	if a, ok := s.Accounts[account]; ok {
		for alias := range a.Aliases {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return aliases, nil
}

// DeleteDevice removes alias and the wrapped key addressed to its public key.
// The last device of an account cannot be removed.
func (s *MemoryStore) DeleteDevice(account, alias string) error {
	if err := checkAccount(account); err != nil {
		return err
	}
	return s.withWrite(func() error {
		a, ok := s.Accounts[account]
		if !ok {
			return kerrors.ErrDeviceNotFound
		}
		publicKey, ok := a.Aliases[alias]
		if !ok {
			return kerrors.ErrDeviceNotFound
		}
		if len(a.Aliases) <= 1 {
			return kerrors.ErrLastDevice
		}
		delete(a.Aliases, alias)
		if !a.hasPublicKey(publicKey) {
			delete(a.Keys, publicKey)
		}
		return nil
	})
}

// IsEncryptedSymmetricKeyRegistered reports whether any device of the account
// holds a wrapped key.
func (s *MemoryStore) IsEncryptedSymmetricKeyRegistered(account string) (bool, error) {
	if err := checkAccount(account); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.Accounts[account]
	return ok && len(a.Keys) > 0, nil
}

func (s *MemoryStore) RegisterEncryptedSymmetricKey(account, publicKey, wrappedKey string) error {
	if err := checkAccount(account); err != nil {
		return err
	}
	return s.withWrite(func() error {
		a, ok := s.Accounts[account]
		if !ok {
			return kerrors.ErrDeviceNotRegistered
		}
		if !a.hasPublicKey(publicKey) {
			return kerrors.ErrUnknownPublicKey
		}
		if len(a.Keys) > 0 {
			return kerrors.ErrAlreadyRegistered
		}
		a.Keys[publicKey] = wrappedKey
		return nil
	})
}

func (s *MemoryStore) GetEncryptedSymmetricKey(account, publicKey string) (string, error) {
	if err := checkAccount(account); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.Accounts[account]
	if !ok {
		return "", kerrors.ErrDeviceNotRegistered
	}
	if !a.hasPublicKey(publicKey) {
		return "", kerrors.ErrUnknownPublicKey
	}
	wrapped, ok := a.Keys[publicKey]
	if !ok {
		return "", kerrors.ErrKeyNotSynchronized
	}
	return wrapped, nil
}

// GetUnsyncedPublicKeys returns registered public keys without a wrapped key,
// sorted and without duplicates.
func (s *MemoryStore) GetUnsyncedPublicKeys(account string) ([]string, error) {
	if err := checkAccount(account); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	unsynced := []string{}
	a, ok := s.Accounts[account]
	if !ok {
		return unsynced, nil
	}
	seen := make(map[string]bool)
	for _, publicKey := range a.Aliases {
		if _, synced := a.Keys[publicKey]; synced || seen[publicKey] {
			continue
		}
		seen[publicKey] = true
		unsynced = append(unsynced, publicKey)
	}
	sort.Strings(unsynced)
	return unsynced, nil
}

// UploadEncryptedSymmetricKeys stores every pair or, if any public key is
// unknown, none of them.
func (s *MemoryStore) UploadEncryptedSymmetricKeys(account string, keys []WrappedKey) error {
	if err := checkAccount(account); err != nil {
		return err
	}
	return s.withWrite(func() error {
		a, ok := s.Accounts[account]
		if !ok {
			return kerrors.ErrDeviceNotRegistered
		}
		for _, k := range keys {
			if !a.hasPublicKey(k.PublicKey) {
				return kerrors.ErrUnknownPublicKey
			}
		}
		for _, k := range keys {
			a.Keys[k.PublicKey] = k.WrappedKey
		}
		return nil
	})
}

// GetNotes returns a copy of the account's notes in insertion order.
func (s *MemoryStore) GetNotes(account string) ([]Note, error) {
	if err := checkAccount(account); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := []Note{}
	if a, ok := s.Accounts[account]; ok {
		notes = append(notes, a.Notes...)
	}
	return notes, nil
}

func (s *MemoryStore) AddNote(account, data string) (uint64, error) {
	if err := checkAccount(account); err != nil {
		return 0, err
	}
	var id uint64
	err := s.withWrite(func() error {
		a, ok := s.Accounts[account]
		if !ok {
			a = newAccountRecord()
			s.Accounts[account] = a
		}
		id = s.NextNoteID
		s.NextNoteID++
		a.Notes = append(a.Notes, Note{ID: id, Data: data})
		return nil
	})
	return id, err
}

func (s *MemoryStore) UpdateNote(account string, id uint64, data string) error {
	if err := checkAccount(account); err != nil {
		return err
	}
	return s.withWrite(func() error {
		a, ok := s.Accounts[account]
		if !ok {
			return kerrors.ErrNoteNotFound
		}
		for i := range a.Notes {
			if a.Notes[i].ID == id {
				a.Notes[i].Data = data
				return nil
			}
		}
		return kerrors.ErrNoteNotFound
	})
}

func (s *MemoryStore) DeleteNote(account string, id uint64) error {
	if err := checkAccount(account); err != nil {
		return err
	}
	return s.withWrite(func() error {
		a, ok := s.Accounts[account]
		if !ok {
			return kerrors.ErrNoteNotFound
		}
		for i := range a.Notes {
			if a.Notes[i].ID == id {
				a.Notes = append(a.Notes[:i], a.Notes[i+1:]...)
				return nil
			}
		}
		return kerrors.ErrNoteNotFound
	})
}

// ForAccount binds the store to one account.
func (s *MemoryStore) ForAccount(account string) Service {
	return &accountService{store: s, account: account}
}

type accountService struct {
	store   *MemoryStore
	account string
}

var _ Service = (*accountService)(nil)

func (a *accountService) RegisterDevice(ctx context.Context, alias, publicKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.store.RegisterDevice(a.account, alias, publicKey)
}

func (a *accountService) GetDeviceAliases(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.store.GetDeviceAliases(a.account)
}

func (a *accountService) DeleteDevice(ctx context.Context, alias string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.store.DeleteDevice(a.account, alias)
}

func (a *accountService) IsEncryptedSymmetricKeyRegistered(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return a.store.IsEncryptedSymmetricKeyRegistered(a.account)
}

func (a *accountService) RegisterEncryptedSymmetricKey(ctx context.Context, publicKey, wrappedKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.store.RegisterEncryptedSymmetricKey(a.account, publicKey, wrappedKey)
}

func (a *accountService) GetEncryptedSymmetricKey(ctx context.Context, publicKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.store.GetEncryptedSymmetricKey(a.account, publicKey)
}

func (a *accountService) GetUnsyncedPublicKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.store.GetUnsyncedPublicKeys(a.account)
}

func (a *accountService) UploadEncryptedSymmetricKeys(ctx context.Context, keys []WrappedKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.store.UploadEncryptedSymmetricKeys(a.account, keys)
}

func (a *accountService) GetNotes(ctx context.Context) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.store.GetNotes(a.account)
}

func (a *accountService) AddNote(ctx context.Context, data string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.store.AddNote(a.account, data)
}

func (a *accountService) UpdateNote(ctx context.Context, id uint64, data string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.store.UpdateNote(a.account, id, data)
}

func (a *accountService) DeleteNote(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.store.DeleteNote(a.account, id)
}
