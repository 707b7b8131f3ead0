// Package utils provides shared utility functions for kanuka-notes.
//
// # System Utilities
//
// Functions for interacting with the operating system:
//   - GetHostname: returns the system hostname
//   - SanitizeDeviceName: normalizes device names for display and storage
//   - DefaultDeviceName: derives a device name from the hostname
//
// # String Utilities
//
//   - IsValidDeviceName: checks a device name after sanitization
//
// # Terminal Utilities
//
// Functions for terminal detection and interaction:
//   - IsTerminal: checks if stdin is a terminal
//   - ReadPassphrase: reads the key store passphrase without echo
package utils
