package workflows

import (
	"context"
	"errors"
	"fmt"
	"slices"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/keysync"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

// StatusResult describes this device as the backend sees it.
type StatusResult struct {
	LoggedIn    bool
	Alias       string
	DeviceName  string
	BackendURL  string
	Fingerprint string

	// Registered is true when the backend lists this device's alias.
	Registered bool

	// State is the state a login would reach: StateSynced when the backend
	// holds a wrapped key for this device, StateWaiting when it is
	// registered without one, StateAnonymous otherwise.
	State keysync.State
}

// Status inspects the local identity and asks the backend about it. Unlike
// Login it never generates keys or registers the device.
func Status(ctx context.Context, opts SessionOptions) (*StatusResult, error) {
	s, err := openSession(opts)
	if errors.Is(err, kerrors.ErrNotLoggedIn) {
		return &StatusResult{State: keysync.StateAnonymous}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		LoggedIn:   true,
		Alias:      s.Config.Device.Alias,
		DeviceName: s.Config.Device.Name,
		BackendURL: s.Config.BackendURL(),
		State:      keysync.StateAnonymous,
	}

	pair, err := s.Keys.LoadKeyPair()
	if errors.Is(err, kerrors.ErrKeyNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	publicKey, err := secrets.ExportPublicKeyBase64(pair.Public)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = secrets.Fingerprint(publicKey)

	aliases, err := s.Backend.GetDeviceAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	result.Registered = result.Alias != "" && slices.Contains(aliases, result.Alias)
	if !result.Registered {
		return result, nil
	}

	_, err = s.Backend.GetEncryptedSymmetricKey(ctx, publicKey)
	if err == nil {
		result.State = keysync.StateSynced
		return result, nil
	}
	de, ok := kerrors.AsDeviceError(err)
	switch {
	case ok && de == kerrors.ErrKeyNotSynchronized:
		result.State = keysync.StateWaiting
	case ok:
		result.Registered = false
	default:
		return nil, fmt.Errorf("failed to query the account key: %w", err)
	}
	return result, nil
}
