package configs

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the root directory for all user state when set.
const HomeEnv = "KANUKA_NOTES_HOME"

type UserSettings struct {
	UserKeysPath    string
	UserConfigsPath string
	AuditLogPath    string
}

var UserNotesSettings *UserSettings

func init() {
	UserNotesSettings = DefaultUserSettings()
}

// DefaultUserSettings resolves the user directories from the environment.
func DefaultUserSettings() *UserSettings {
	if home := os.Getenv(HomeEnv); home != "" {
		return SettingsForHome(home)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(homeDir, ".local", "share")
		} else {
			dataDir = configDir
		}
	}

	configsPath := filepath.Join(configDir, "kanuka-notes")
	return &UserSettings{
		UserKeysPath:    filepath.Join(dataDir, "kanuka-notes", "keys"),
		UserConfigsPath: configsPath,
		AuditLogPath:    filepath.Join(configsPath, "audit.jsonl"),
	}
}

// SettingsForHome lays out all user state under a single directory.
func SettingsForHome(home string) *UserSettings {
	return &UserSettings{
		UserKeysPath:    filepath.Join(home, "keys"),
		UserConfigsPath: home,
		AuditLogPath:    filepath.Join(home, "audit.jsonl"),
	}
}

// EnsureUserDirectories creates the config and keys directories.
func EnsureUserDirectories() error {
	for _, dir := range []string{UserNotesSettings.UserConfigsPath, UserNotesSettings.UserKeysPath} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
