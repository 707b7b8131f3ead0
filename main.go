package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/kanuka-notes/cmd"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kanuka-notes",
	Short: "Kanuka Notes - end-to-end encrypted notes shared across your devices.",
	Long: `Kanuka Notes keeps your notes encrypted with a key that only your devices hold.

Features:
  - Notes are encrypted on the device; the backend stores ciphertext only
  - Each device has its own key pair; new devices receive the account key
    from a device that already has it
  - A reference backend you can run yourself

Usage:
  kanuka-notes <command> [flags]

Available Commands:
  notes      Log in, synchronize the account key and manage notes
  devices    Manage the devices of your account
  config     Manage the user configuration
  serve      Run a notes backend

Run 'kanuka-notes help <command>' for more details on a specific command.
`,
	Run: func(cmd *cobra.Command, args []string) {
		figure.NewColorFigure("Kanuka Notes", "small", "green", true).Print()
		fmt.Println()
		fmt.Println("Welcome to Kānuka Notes! Run 'kanuka-notes --help' to see available commands.")
	},
}

func init() {
	rootCmd.AddCommand(cmd.NotesCmd)
	rootCmd.AddCommand(cmd.DevicesCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
	rootCmd.AddCommand(cmd.ServeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
