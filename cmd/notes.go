package cmd

import (
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	debug         bool
	askPassphrase bool
	Logger        logger.Logger

	// keyBits overrides the device key size; tests use smaller keys.
	keyBits int

	NotesCmd = &cobra.Command{
		Use:   "notes",
		Short: "Manage end-to-end encrypted notes",
		Long: `Logs this device in to an account, synchronizes the account key and
reads and writes encrypted notes.

Every device has its own key pair. The first device of an account creates the
account key; every later device receives a copy wrapped for its public key by
an already synchronized device.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing notes command with verbose=%t, debug=%t", verbose, debug)
			return resolvePassphrase(askPassphrase)
		},
	}
)

func init() {
	NotesCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	NotesCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	NotesCmd.PersistentFlags().BoolVarP(&askPassphrase, "ask-passphrase", "P", false, "prompt for the passphrase protecting the device keys")

	NotesCmd.AddCommand(loginCmd)
	NotesCmd.AddCommand(logoutCmd)
	NotesCmd.AddCommand(statusCmd)
	NotesCmd.AddCommand(addCmd)
	NotesCmd.AddCommand(listCmd)
	NotesCmd.AddCommand(showCmd)
	NotesCmd.AddCommand(editCmd)
	NotesCmd.AddCommand(rmCmd)
	NotesCmd.AddCommand(watchCmd)
}

// Helper functions for testing

// GetNotesCmd returns the NotesCmd for testing.
func GetNotesCmd() *cobra.Command {
	return NotesCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	askPassphrase = false
	passphrase = ""
	resetLoginCommandState()
	resetLogoutCommandState()
	resetStatusCommandState()
	resetListCommandState()
	resetWatchCommandState()
}

// SetVerbose sets the verbose flag for testing.
func SetVerbose(v bool) {
	verbose = v
}

// SetDebug sets the debug flag for testing.
func SetDebug(d bool) {
	debug = d
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}

// SetKeyBits sets the size of newly generated device keys for testing.
func SetKeyBits(bits int) {
	keyBits = bits
}
