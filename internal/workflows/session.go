package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/kanuka-notes/internal/api"
	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/keystore"
	"github.com/PolarWolf314/kanuka-notes/internal/keysync"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

// SessionOptions configures how a workflow reaches the device state and the
// backend. The zero value uses the user's config and key directory.
type SessionOptions struct {
	// Backend replaces the HTTP client built from the user config.
	Backend backend.Service

	// Keys replaces the on-disk key store.
	Keys keystore.KeyStore

	// KeyBits overrides the device key size for new identities.
	KeyBits int

	// Passphrase protects the private key at rest. Empty falls back to
	// KANUKA_NOTES_PASSPHRASE.
	Passphrase string

	Log logger.Logger
}

// Session is an open device session.
type Session struct {
	Config      *configs.UserConfig
	Backend     backend.Service
	Keys        *secrets.DeviceKeyManager
	Coordinator *keysync.Coordinator
}

func deviceKeys(opts SessionOptions) *secrets.DeviceKeyManager {
	ks := opts.Keys
	if ks == nil {
		passphrase := opts.Passphrase
		if passphrase == "" {
			passphrase = os.Getenv(keystore.PassphraseEnv)
		}
		ks = keystore.NewFileStore(configs.UserNotesSettings.UserKeysPath, passphrase)
	}
	manager := secrets.NewDeviceKeyManager(ks, configs.NewDeviceAliasStore())
	manager.KeyBits = opts.KeyBits
	return manager
}

// openSession builds a session for the logged-in account without contacting
// the backend.
func openSession(opts SessionOptions) (*Session, error) {
	config, err := configs.LoadUserConfig()
	if err != nil {
		return nil, err
	}
	if config.Account.Token == "" {
		return nil, kerrors.ErrNotLoggedIn
	}
	if err := configs.EnsureUserDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create user directories: %w", err)
	}

	svc := opts.Backend
	if svc == nil {
		svc = api.NewClient(config.BackendURL(), config.Account.Token)
	}
	keys := deviceKeys(opts)
	coord := keysync.New(keys, svc, keysync.Options{
		Interval: config.SyncInterval(),
		Log:      opts.Log,
	})

	return &Session{
		Config:      config,
		Backend:     svc,
		Keys:        keys,
		Coordinator: coord,
	}, nil
}

// syncedSession opens a session and brings it to StateSynced. A device still
// waiting for the key gets ErrNotSynced.
func syncedSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	s, err := openSession(opts)
	if err != nil {
		return nil, err
	}
	state, err := s.Coordinator.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	if state != keysync.StateSynced {
		return nil, fmt.Errorf("device is %s: %w", state, kerrors.ErrNotSynced)
	}
	s.serveWaitingDevices(ctx, opts.Log)
	return s, nil
}

// serveWaitingDevices runs one convergence tick. Failures are only logged;
// the next command or a running watch retries.
func (s *Session) serveWaitingDevices(ctx context.Context, log logger.Logger) {
	res, err := s.Coordinator.ConvergenceTick(ctx)
	if err != nil {
		log.Warnf("Could not share the account key with waiting devices: %v", err)
		return
	}
	if res.Uploaded > 0 {
		log.Infof("Shared the account key with %d waiting device(s)", res.Uploaded)
	}
}

// close stops any convergence task the session started.
func (s *Session) close() {
	if task := s.Coordinator.Convergence(); task != nil {
		task.Stop()
	}
}
