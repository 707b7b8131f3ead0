package cmd

import (
	"errors"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var devicesRmCmd = &cobra.Command{
	Use:   "rm <alias>",
	Short: "Remove a device from the account",
	Long: `Removes a device and its copy of the account key from the backend.

The last device of an account cannot be removed. Removing a device does not
rotate the account key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		DevicesLogger.Infof("Starting devices rm command")
		alias := args[0]

		spinner, cleanup := startSpinnerWithFlags("Removing device...", devicesVerbose, devicesDebug)
		defer cleanup()

		ctx, cancel := signalContext()
		defer cancel()

		err := workflows.RemoveDevice(ctx, workflows.RemoveDeviceOptions{
			SessionOptions: sessionOptions(DevicesLogger),
			Alias:          alias,
		})
		if err != nil {
			DevicesLogger.Errorf("Remove device failed: %v", err)
			msg := failureMessage("Failed to remove device "+ui.Highlight.Sprint(alias), err)
			if errors.Is(err, kerrors.ErrDeviceNotFound) {
				msg += "\n" + ui.Hint("Run "+ui.Code.Sprint("kanuka-notes devices list")+" to see registered devices")
			}
			spinner.FinalMSG = msg
			return nil
		}

		spinner.FinalMSG = ui.Succeeded("Removed device " + ui.Highlight.Sprint(alias))
		return nil
	},
}
