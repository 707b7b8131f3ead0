// Package configs manages user configuration for kanuka-notes.
//
// Configuration is stored in TOML format at ~/.config/kanuka-notes/config.toml
// (or $KANUKA_NOTES_HOME/config.toml):
//
//	[account]
//	token = "..."          # identifies the account to the backend
//
//	[device]
//	alias = "0b5f..."      # generated once per installation
//	name = "laptop"
//
//	[backend]
//	url = "http://127.0.0.1:8790"
//
//	[sync]
//	interval = "5s"
//
// # Device Alias
//
// The device alias is a random UUID generated on first use and persisted in
// the [device] table. DeviceAliasStore exposes it as the device-local string
// store the key manager reads, writes and clears on logout. It is a label
// for humans and for presence checks; the protocol identifies a device by
// its exported public key.
//
// # Settings
//
// UserNotesSettings holds the resolved directories and is initialized at
// startup. Tests replace it with SettingsForHome(t.TempDir()).
package configs
