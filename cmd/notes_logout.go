package cmd

import (
	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var logoutForce bool

func init() {
	logoutCmd.Flags().BoolVarP(&logoutForce, "force", "f", false, "clear the local identity even if this device is not synchronized")
}

func resetLogoutCommandState() {
	logoutForce = false
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear this device's keys and account token",
	Long: `Removes this device's key pair, alias and account token.

A device that has not received the account key yet is only cleared with
--force. The device stays listed on the backend; remove it from another
device with 'kanuka-notes devices rm'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting logout command")
		spinner, cleanup := startSpinner("Logging out...", verbose)
		defer cleanup()

		ctx, cancel := signalContext()
		defer cancel()

		result, err := workflows.Logout(ctx, workflows.LogoutOptions{
			SessionOptions: sessionOptions(Logger),
			Force:          logoutForce,
		})
		if err != nil {
			Logger.Errorf("Logout failed: %v", err)
			msg := failureMessage("Failed to log out", err)
			if !logoutForce {
				msg += "\n" + ui.Hint("Use "+ui.Flag.Sprint("--force")+" to clear the local identity anyway")
			}
			spinner.FinalMSG = msg
			return nil
		}

		if !result.Cleared {
			spinner.FinalMSG = ui.Succeeded("Logged out") + "\n" + ui.Muted.Sprint("no device keys were stored")
			return nil
		}
		spinner.FinalMSG = ui.Succeeded("Logged out device "+ui.Highlight.Sprint(result.Alias)) + "\n" +
			"  Device keys and alias removed."
		return nil
	},
}
