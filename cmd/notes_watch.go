package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var watchToken string

func init() {
	watchCmd.Flags().StringVarP(&watchToken, "token", "t", "", "account token (defaults to the configured token)")
}

func resetWatchCommandState() {
	watchToken = ""
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay online and share the account key with new devices",
	Long: `Logs in, waits for the account key if needed, and then keeps running,
wrapping the account key for every newly registered device of the account at
the configured sync interval.

Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting watch command")
		ctx, cancel := signalContext()
		defer cancel()

		fmt.Println(ui.Info.Sprint("→") + " Logging in...")
		err := workflows.Watch(ctx, workflows.WatchOptions{
			LoginOptions: workflows.LoginOptions{
				SessionOptions: sessionOptions(Logger),
				Token:          watchToken,
			},
			OnLogin: func(result *workflows.LoginResult) {
				fmt.Println(ui.Succeeded("Device " + ui.Highlight.Sprint(result.Alias) + " is synchronized"))
				fmt.Println(ui.Info.Sprint("→") + " Sharing the account key with new devices. Press Ctrl-C to stop.")
			},
		})
		if err != nil {
			fmt.Println(failureMessage("Stopped watching", err))
			return nil
		}
		fmt.Println(ui.Succeeded("Stopped"))
		return nil
	},
}
