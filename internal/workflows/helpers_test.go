package workflows

import (
	"context"
	"crypto/rsa"
	"io"
	"sync"
	"testing"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	"github.com/PolarWolf314/kanuka-notes/internal/keystore"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

const testAccount = "account-1"

var (
	keyPoolOnce sync.Once
	keyPool     [3]*rsa.PrivateKey
	keyPoolErr  error
)

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

var quiet = logger.Logger{Out: io.Discard, Err: io.Discard}

// testDevice is one device with its own home directory and key store.
// Workflows read the global user settings, so call use before each one.
type testDevice struct {
	home string
	keys *keystore.MemoryStore
	opts SessionOptions
}

func newTestDevice(t *testing.T, svc backend.Service, key int) *testDevice {
	t.Helper()
	prev := configs.UserNotesSettings
	t.Cleanup(func() { configs.UserNotesSettings = prev })

	keys := keystore.NewMemoryStore()
	priv := testKey(t, key)
	pubPEM, err := secrets.MarshalPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKeyPEM: %v", err)
	}
	if err := keys.Put(keystore.PublicKeyName, pubPEM); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := keys.Put(keystore.PrivateKeyName, secrets.MarshalPrivateKeyPEM(priv)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	return &testDevice{
		home: t.TempDir(),
		keys: keys,
		opts: SessionOptions{Backend: svc, Keys: keys, KeyBits: 2048, Log: quiet},
	}
}

func (d *testDevice) use() {
	configs.UserNotesSettings = configs.SettingsForHome(d.home)
}

func (d *testDevice) config(t *testing.T) *configs.UserConfig {
	t.Helper()
	d.use()
	config, err := configs.LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig: %v", err)
	}
	return config
}

func (d *testDevice) setSyncInterval(t *testing.T, interval string) {
	t.Helper()
	config := d.config(t)
	config.Sync.Interval = interval
	if err := configs.SaveUserConfig(config); err != nil {
		t.Fatalf("SaveUserConfig: %v", err)
	}
}

func (d *testDevice) login(t *testing.T) *LoginResult {
	t.Helper()
	d.use()
	result, err := Login(context.Background(), LoginOptions{SessionOptions: d.opts, Token: testAccount})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return result
}

func (d *testDevice) addNote(t *testing.T, text string) uint64 {
	t.Helper()
	d.use()
	result, err := AddNote(context.Background(), AddNoteOptions{SessionOptions: d.opts, Text: text})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	return result.ID
}

// twoDevices returns a bootstrapped device A and a device B that is
// registered but still waiting for the account key.
func twoDevices(t *testing.T) (*backend.MemoryStore, *testDevice, *testDevice) {
	t.Helper()
	store := backend.NewMemoryStore()
	a := newTestDevice(t, store.ForAccount(testAccount), 0)
	b := newTestDevice(t, store.ForAccount(testAccount), 1)
	a.login(t)
	b.login(t)
	return store, a, b
}

func saveConfig(config *configs.UserConfig) error {
	return configs.SaveUserConfig(config)
}
