package cmd

import (
	"fmt"
	"strings"

	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"

	"github.com/spf13/cobra"
)

func init() {
	ConfigCmd.AddCommand(configSetBackendCmd)
}

var configSetBackendCmd = &cobra.Command{
	Use:   "set-backend <url>",
	Short: "Set the backend URL",
	Long: `Points this device at another backend.

Devices of one account must use the same backend. Log in again after changing
it so the device registers there.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config set-backend command")
		backendURL := strings.TrimRight(strings.TrimSpace(args[0]), "/")
		if err := validateBackendURL(backendURL); err != nil {
			fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
			return nil
		}

		userConfig, err := configs.LoadUserConfig()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to load user config: %v", err)
		}
		previous := userConfig.BackendURL()
		userConfig.Backend.URL = backendURL
		if err := configs.SaveUserConfig(userConfig); err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to save user config: %v", err)
		}
		ConfigLogger.Debugf("Backend changed from %s to %s", previous, backendURL)

		fmt.Println(ui.Succeeded("Backend set to " + ui.Path.Sprint(backendURL)))
		if previous != backendURL && userConfig.Device.Alias != "" {
			fmt.Println(ui.Hint("Run " + ui.Code.Sprint("kanuka-notes notes login") + " to register this device there"))
		}
		return nil
	},
}
