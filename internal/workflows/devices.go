package workflows

import (
	"context"
	"fmt"
	"slices"

	"github.com/PolarWolf314/kanuka-notes/internal/audit"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

// ListDevicesResult lists the devices of the account.
type ListDevicesResult struct {
	Aliases []string

	// Current is this device's alias, empty if it has none.
	Current string
}

// ListDevices returns the aliases registered for the account. It does not
// register this device.
func ListDevices(ctx context.Context, opts SessionOptions) (*ListDevicesResult, error) {
	s, err := openSession(opts)
	if err != nil {
		return nil, err
	}

	aliases, err := s.Backend.GetDeviceAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	entry := audit.LogWithDevice("devices list")
	entry.DevicesCount = len(aliases)
	audit.Log(entry)

	return &ListDevicesResult{Aliases: aliases, Current: s.Config.Device.Alias}, nil
}

// CheckDeviceResult reports whether this device is still registered.
type CheckDeviceResult struct {
	Alias   string
	Removed bool
}

// CheckDevice reports whether this device's alias has been removed from the
// account, for example by RemoveDevice on another device.
func CheckDevice(ctx context.Context, opts SessionOptions) (*CheckDeviceResult, error) {
	s, err := openSession(opts)
	if err != nil {
		return nil, err
	}
	alias := s.Config.Device.Alias
	if alias == "" {
		return nil, fmt.Errorf("this device has no alias: %w", kerrors.ErrNotLoggedIn)
	}

	aliases, err := s.Backend.GetDeviceAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return &CheckDeviceResult{Alias: alias, Removed: !slices.Contains(aliases, alias)}, nil
}

// RemoveDeviceOptions configures the device removal workflow.
type RemoveDeviceOptions struct {
	SessionOptions
	Alias string
}

// RemoveDevice removes a device and its copy of the account key from the
// backend. The backend refuses to remove the last device of an account.
func RemoveDevice(ctx context.Context, opts RemoveDeviceOptions) error {
	s, err := openSession(opts.SessionOptions)
	if err != nil {
		return err
	}

	if err := s.Backend.DeleteDevice(ctx, opts.Alias); err != nil {
		return fmt.Errorf("failed to remove device %s: %w", opts.Alias, err)
	}

	entry := audit.LogWithDevice("devices rm")
	entry.TargetAlias = opts.Alias
	audit.Log(entry)
	return nil
}
