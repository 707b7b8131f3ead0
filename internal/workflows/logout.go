package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/audit"
	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/keysync"
)

// LogoutOptions configures the logout workflow.
type LogoutOptions struct {
	SessionOptions

	// Force clears the local identity even when the device is not synced.
	Force bool
}

// LogoutResult contains the outcome of a logout.
type LogoutResult struct {
	// Alias is the alias the device had before logging out.
	Alias string

	// Cleared is true when a local key pair existed and was removed.
	Cleared bool
}

// Logout clears the device key pair, the device alias and the account token.
//
// A synced device logs out through the coordinator. A device that cannot
// reach StateSynced is only cleared with Force, since its identity may still
// be waiting for the account key.
func Logout(ctx context.Context, opts LogoutOptions) (*LogoutResult, error) {
	s, err := openSession(opts.SessionOptions)
	if err != nil {
		return nil, err
	}

	result := &LogoutResult{Alias: s.Config.Device.Alias}
	entry := audit.LogWithDevice("logout")

	_, err = s.Keys.LoadKeyPair()
	switch {
	case errors.Is(err, kerrors.ErrKeyNotFound):
		// Nothing stored locally; only the token remains.
	case err != nil && !opts.Force:
		return nil, err
	case err != nil:
		if err := s.Keys.Clear(); err != nil {
			return nil, fmt.Errorf("failed to clear device identity: %w", err)
		}
		result.Cleared = true
	default:
		cleared, err := logoutKnownDevice(ctx, s, opts)
		if err != nil {
			return nil, err
		}
		result.Cleared = cleared
	}

	if err := clearAccountToken(); err != nil {
		return nil, err
	}
	audit.Log(entry)
	return result, nil
}

// logoutKnownDevice logs out a device with a stored key pair. It only resumes
// the session, so logging out never registers the device or creates an
// account key that no remaining device could hold.
func logoutKnownDevice(ctx context.Context, s *Session, opts LogoutOptions) (bool, error) {
	state, err := s.Coordinator.Resume(ctx)
	if err == nil && state == keysync.StateSynced {
		if err := s.Coordinator.Logout(); err != nil {
			return false, err
		}
		return true, nil
	}

	if !opts.Force {
		if err != nil {
			return false, fmt.Errorf("failed to restore session: %w", err)
		}
		return false, fmt.Errorf("device is %s: %w", state, kerrors.ErrNotSynced)
	}

	opts.Log.Warnf("Clearing device identity without a synced session")
	if err := s.Keys.Clear(); err != nil {
		return false, fmt.Errorf("failed to clear device identity: %w", err)
	}
	return true, nil
}

func clearAccountToken() error {
	config, err := configs.LoadUserConfig()
	if err != nil {
		return err
	}
	config.Account.Token = ""
	return configs.SaveUserConfig(config)
}
