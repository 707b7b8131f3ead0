package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/keysync"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/utils"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	loginToken      string
	loginBackendURL string
	loginDeviceName string
	loginWait       bool
)

func init() {
	loginCmd.Flags().StringVarP(&loginToken, "token", "t", "", "account token (defaults to the configured token)")
	loginCmd.Flags().StringVar(&loginBackendURL, "backend", "", "backend URL (defaults to the configured backend)")
	loginCmd.Flags().StringVarP(&loginDeviceName, "name", "n", "", "human-readable name for this device")
	loginCmd.Flags().BoolVarP(&loginWait, "wait", "w", false, "wait until another device shares the account key")
}

func resetLoginCommandState() {
	loginToken = ""
	loginBackendURL = ""
	loginDeviceName = ""
	loginWait = false
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Register this device and obtain the account key",
	Long: `Registers this device with the account and obtains the account key.

On first use a key pair and a device alias are generated and stored locally.
The first device of an account creates the account key. Later devices wait
until a synchronized device shares the key with them; use --wait to keep
polling until that happens.

Examples:
  # Log in the first device of an account
  kanuka-notes notes login --token my-account --backend http://127.0.0.1:8790

  # Log in another device and wait for the key
  kanuka-notes notes login --token my-account --wait`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting login command")
		deviceName := loginDeviceName
		if deviceName != "" {
			deviceName = utils.SanitizeDeviceName(deviceName)
			if !utils.IsValidDeviceName(deviceName) {
				return Logger.ErrorfAndReturn("invalid device name %q", loginDeviceName)
			}
		}

		message := "Logging in..."
		if loginWait {
			message = "Logging in and waiting for the account key..."
		}
		spinner, cleanup := startSpinner(message, verbose)
		defer cleanup()

		ctx, cancel := signalContext()
		defer cancel()

		result, err := workflows.Login(ctx, workflows.LoginOptions{
			SessionOptions: sessionOptions(Logger),
			Token:          loginToken,
			BackendURL:     loginBackendURL,
			DeviceName:     deviceName,
			Wait:           loginWait,
		})
		if err != nil {
			Logger.Errorf("Login failed: %v", err)
			spinner.FinalMSG = failureMessage("Failed to log in", err)
			return nil
		}
		Logger.Debugf("Login result: %+v", result)

		identity := fmt.Sprintf("  Device %s, key %s", ui.Highlight.Sprint(result.Alias), ui.Muted.Sprint(result.Fingerprint))
		switch {
		case result.Bootstrapped:
			spinner.FinalMSG = ui.Succeeded("Logged in and created the account key") + "\n" + identity
		case result.State == keysync.StateSynced:
			spinner.FinalMSG = ui.Succeeded("Logged in and synchronized the account key") + "\n" + identity
		default:
			spinner.FinalMSG = ui.Warning.Sprint("!") + " Logged in, waiting for another device to share the account key\n" + identity + "\n" +
				ui.Hint("Open kanuka-notes on a synchronized device, or run "+ui.Code.Sprint("kanuka-notes notes login --wait"))
		}
		return nil
	},
}
