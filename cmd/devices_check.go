package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var devicesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether this device is still registered",
	Long: `Checks whether this device's alias is still listed by the backend.

A device removed from another device keeps its local keys until it logs out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		DevicesLogger.Infof("Starting devices check command")

		ctx, cancel := signalContext()
		defer cancel()

		result, err := workflows.CheckDevice(ctx, sessionOptions(DevicesLogger))
		if err != nil {
			fmt.Println(failureMessage("Failed to check device", err))
			return nil
		}

		if result.Removed {
			fmt.Println(ui.Error.Sprint("✗") + " Device " + ui.Highlight.Sprint(result.Alias) + " has been removed from the account")
			fmt.Println(ui.Hint("Run " + ui.Code.Sprint("kanuka-notes notes logout --force") + " to clear it locally"))
			return nil
		}
		fmt.Println(ui.Succeeded("Device " + ui.Highlight.Sprint(result.Alias) + " is registered"))
		return nil
	},
}
