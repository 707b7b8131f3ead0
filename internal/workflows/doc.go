// Package workflows provides high-level orchestration for kanuka-notes commands.
//
// Workflows coordinate the configs, keystore, secrets, keysync and audit
// packages to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// The cmd/ package stays a thin layer that parses flags, calls a workflow
// and formats the result. Workflows load configuration, open the device
// session, perform the operation and record audit entries.
//
// # Sessions
//
// Every command runs in its own process, so note workflows open a fresh
// session: they load the device identity, register it with the backend and
// obtain the account key before touching any note. A synced session also
// runs one convergence tick, so any command on a synced device serves
// devices that are waiting for the key.
//
// # Error Handling
//
// Workflows return errors from the internal/errors package, wrapped with
// context. Use errors.Is to check for specific conditions:
//
//	_, err := workflows.AddNote(ctx, opts)
//	if errors.Is(err, kerrors.ErrNotSynced) {
//	    // Suggest waiting for another device
//	}
//
// Backend protocol outcomes are kerrors.DeviceError values and can be
// matched with kerrors.AsDeviceError.
package workflows
