package cmd

import (
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/spf13/cobra"
)

var (
	devicesVerbose       bool
	devicesDebug         bool
	devicesAskPassphrase bool
	DevicesLogger        logger.Logger

	// DevicesCmd is the top-level devices command.
	DevicesCmd = &cobra.Command{
		Use:   "devices",
		Short: "Manage the devices of your account",
		Long: `Lists the devices registered for the account, checks whether this device
is still registered, and removes devices.

Examples:
  # List all devices of the account
  kanuka-notes devices list

  # Check whether this device was removed
  kanuka-notes devices check

  # Remove a lost device
  kanuka-notes devices rm 5f0c3a1e-...`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			DevicesLogger = logger.Logger{
				Verbose: devicesVerbose,
				Debug:   devicesDebug,
			}
			DevicesLogger.Debugf("Initializing devices command with verbose=%t, debug=%t", devicesVerbose, devicesDebug)
			return resolvePassphrase(devicesAskPassphrase)
		},
	}
)

func init() {
	DevicesCmd.PersistentFlags().BoolVarP(&devicesVerbose, "verbose", "v", false, "enable verbose output")
	DevicesCmd.PersistentFlags().BoolVarP(&devicesDebug, "debug", "d", false, "enable debug output")
	DevicesCmd.PersistentFlags().BoolVarP(&devicesAskPassphrase, "ask-passphrase", "P", false, "prompt for the passphrase protecting the device keys")

	DevicesCmd.AddCommand(devicesListCmd)
	DevicesCmd.AddCommand(devicesCheckCmd)
	DevicesCmd.AddCommand(devicesRmCmd)
}

// GetDevicesCmd returns the DevicesCmd for testing.
func GetDevicesCmd() *cobra.Command {
	return DevicesCmd
}

// ResetDevicesState resets all devices command global variables to their default values for testing.
func ResetDevicesState() {
	devicesVerbose = false
	devicesDebug = false
	devicesAskPassphrase = false
	devicesListJSON = false
}
