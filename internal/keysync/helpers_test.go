package keysync

import (
	"context"
	"crypto/rsa"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	"github.com/PolarWolf314/kanuka-notes/internal/keystore"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

const testAccount = "account-1"

var (
	keyPoolOnce sync.Once
	keyPool     [4]*rsa.PrivateKey
	keyPoolErr  error
)

// testKey returns one of a few 2048-bit keys generated once per test binary.
func testKey(t *testing.T, i int) *rsa.PrivateKey {
	t.Helper()
	keyPoolOnce.Do(func() {
		for n := range keyPool {
			keyPool[n], keyPoolErr = secrets.GenerateRSAKeyPair(2048)
			if keyPoolErr != nil {
				return
			}
		}
	})
	if keyPoolErr != nil {
		t.Fatalf("Failed to generate test keys: %v", keyPoolErr)
	}
	return keyPool[i]
}

func exportedKey(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	exported, err := secrets.ExportPublicKeyBase64(&key.PublicKey)
	if err != nil {
		t.Fatalf("ExportPublicKeyBase64: %v", err)
	}
	return exported
}

type memAliases struct {
	mu    sync.Mutex
	alias string
}

func (m *memAliases) Alias() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alias, nil
}

func (m *memAliases) SetAlias(alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alias = alias
	return nil
}

func (m *memAliases) RemoveAlias() error {
	return m.SetAlias("")
}

type device struct {
	keys    keystore.KeyStore
	aliases *memAliases
	manager *secrets.DeviceKeyManager
	coord   *Coordinator
	key     *rsa.PrivateKey
}

func quietLogger() logger.Logger {
	return logger.Logger{Out: io.Discard, Err: io.Discard}
}

// newDevice builds a coordinator whose key store already holds pool key
// keyIndex. Its convergence interval is long enough that only explicit
// ticks run.
func newDevice(t *testing.T, svc backend.KeyDistribution, keyIndex int, alias string) *device {
	return newDeviceWithInterval(t, svc, keyIndex, alias, time.Hour)
}

func newDeviceWithInterval(t *testing.T, svc backend.KeyDistribution, keyIndex int, alias string, interval time.Duration) *device {
	t.Helper()
	key := testKey(t, keyIndex)

	ks := keystore.NewMemoryStore()
	pubPEM, err := secrets.MarshalPublicKeyPEM(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKeyPEM: %v", err)
	}
	if err := ks.Put(keystore.PrivateKeyName, secrets.MarshalPrivateKeyPEM(key)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := ks.Put(keystore.PublicKeyName, pubPEM); err != nil {
		t.Fatalf("Put: %v", err)
	}

	aliases := &memAliases{alias: alias}
	manager := &secrets.DeviceKeyManager{Keys: ks, Aliases: aliases, KeyBits: 2048}
	coord := New(manager, svc, Options{Interval: interval, Log: quietLogger()})
	t.Cleanup(func() {
		if task := coord.Convergence(); task != nil {
			task.Stop()
		}
	})
	return &device{keys: ks, aliases: aliases, manager: manager, coord: coord, key: key}
}

func mustInitialize(t *testing.T, d *device, want State) {
	t.Helper()
	state, err := d.coord.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if state != want {
		t.Fatalf("Initialize state = %s, want %s", state, want)
	}
}

// spyBackend counts calls and lets tests replace individual results.
type spyBackend struct {
	backend.KeyDistribution

	mu    sync.Mutex
	calls map[string]int

	isRegistered func(ctx context.Context) (bool, error)
	getKey       func(ctx context.Context, publicKey string) (string, error)
	getUnsynced  func(ctx context.Context) ([]string, error)
	upload       func(ctx context.Context, keys []backend.WrappedKey) error
}

func newSpy(inner backend.KeyDistribution) *spyBackend {
	return &spyBackend{KeyDistribution: inner, calls: make(map[string]int)}
}

func (s *spyBackend) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

func (s *spyBackend) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *spyBackend) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *spyBackend) RegisterDevice(ctx context.Context, alias, publicKey string) error {
	s.record("RegisterDevice")
	return s.KeyDistribution.RegisterDevice(ctx, alias, publicKey)
}

func (s *spyBackend) IsEncryptedSymmetricKeyRegistered(ctx context.Context) (bool, error) {
	s.record("IsEncryptedSymmetricKeyRegistered")
	if s.isRegistered != nil {
		return s.isRegistered(ctx)
	}
	return s.KeyDistribution.IsEncryptedSymmetricKeyRegistered(ctx)
}

func (s *spyBackend) RegisterEncryptedSymmetricKey(ctx context.Context, publicKey, wrappedKey string) error {
	s.record("RegisterEncryptedSymmetricKey")
	return s.KeyDistribution.RegisterEncryptedSymmetricKey(ctx, publicKey, wrappedKey)
}

func (s *spyBackend) GetEncryptedSymmetricKey(ctx context.Context, publicKey string) (string, error) {
	s.record("GetEncryptedSymmetricKey")
	if s.getKey != nil {
		return s.getKey(ctx, publicKey)
	}
	return s.KeyDistribution.GetEncryptedSymmetricKey(ctx, publicKey)
}

func (s *spyBackend) GetUnsyncedPublicKeys(ctx context.Context) ([]string, error) {
	s.record("GetUnsyncedPublicKeys")
	if s.getUnsynced != nil {
		return s.getUnsynced(ctx)
	}
	return s.KeyDistribution.GetUnsyncedPublicKeys(ctx)
}

func (s *spyBackend) UploadEncryptedSymmetricKeys(ctx context.Context, keys []backend.WrappedKey) error {
	s.record("UploadEncryptedSymmetricKeys")
	if s.upload != nil {
		return s.upload(ctx, keys)
	}
	return s.KeyDistribution.UploadEncryptedSymmetricKeys(ctx, keys)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
