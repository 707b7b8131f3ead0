package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/audit"
	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/keysync"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

// LoginOptions configures the login workflow.
type LoginOptions struct {
	SessionOptions

	// Token is the account token. Empty keeps the configured token.
	Token string

	// BackendURL replaces the configured backend URL when set.
	BackendURL string

	// DeviceName is a human-readable label stored next to the alias.
	DeviceName string

	// Wait keeps polling for the account key until this device is synced
	// or the context is done.
	Wait bool
}

// LoginResult contains the outcome of a login.
type LoginResult struct {
	// Alias is the device alias registered with the backend.
	Alias string

	// Fingerprint identifies the device public key.
	Fingerprint string

	// State is the session state after login.
	State keysync.State

	// Bootstrapped is true when this device created the account key.
	Bootstrapped bool
}

// Login registers this device with the account and obtains the account key.
//
// The first device of an account creates the key. Later devices either
// receive their copy at once or end in StateWaiting until a synced device
// shares it; with Wait set, Login polls until that happens.
func Login(ctx context.Context, opts LoginOptions) (*LoginResult, error) {
	s, result, err := login(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.close()
	return result, nil
}

func login(ctx context.Context, opts LoginOptions) (*Session, *LoginResult, error) {
	if err := saveLoginConfig(opts); err != nil {
		return nil, nil, err
	}

	s, err := openSession(opts.SessionOptions)
	if err != nil {
		return nil, nil, err
	}

	state, err := s.Coordinator.Initialize(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to log in: %w", err)
	}

	bootstrapped := s.Coordinator.Bootstrapped()

	if state == keysync.StateWaiting && opts.Wait {
		opts.Log.Infof("Waiting for a synced device to share the account key")
		if err := s.Coordinator.WaitForSync(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed waiting for the account key: %w", err)
		}
		state = s.Coordinator.State()
	}

	if state == keysync.StateSynced && !bootstrapped {
		s.serveWaitingDevices(ctx, opts.Log)
	}

	result := &LoginResult{
		Alias:        s.Coordinator.Alias(),
		Fingerprint:  secrets.Fingerprint(s.Coordinator.PublicKey()),
		State:        state,
		Bootstrapped: bootstrapped,
	}

	entry := audit.LogWithDevice("login")
	entry.State = state.String()
	audit.Log(entry)

	return s, result, nil
}

func saveLoginConfig(opts LoginOptions) error {
	config, err := configs.LoadUserConfig()
	if err != nil {
		return err
	}
	if opts.Token != "" {
		config.Account.Token = opts.Token
	}
	if config.Account.Token == "" {
		return kerrors.ErrNotLoggedIn
	}
	if opts.BackendURL != "" {
		config.Backend.URL = opts.BackendURL
	}
	if opts.DeviceName != "" {
		config.Device.Name = opts.DeviceName
	}
	if err := configs.EnsureUserDirectories(); err != nil {
		return fmt.Errorf("failed to create user directories: %w", err)
	}
	return configs.SaveUserConfig(config)
}
