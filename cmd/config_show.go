package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"

	"github.com/spf13/cobra"
)

var (
	configShowJSON   bool
	configShowSecret bool
)

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
	configShowCmd.Flags().BoolVar(&configShowSecret, "show-token", false, "print the account token instead of masking it")
	ConfigCmd.AddCommand(configShowCmd)
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
	configShowSecret = false
}

type configOutput struct {
	ConfigPath   string `json:"config_path"`
	BackendURL   string `json:"backend_url"`
	Token        string `json:"token,omitempty"`
	DeviceAlias  string `json:"device_alias,omitempty"`
	DeviceName   string `json:"device_name,omitempty"`
	SyncInterval string `json:"sync_interval"`
	KeysPath     string `json:"keys_path"`
	AuditLogPath string `json:"audit_log_path"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Displays the current kanuka-notes configuration and the directories it
uses. The account token is masked unless --show-token is given.

Examples:
  kanuka-notes config show
  kanuka-notes config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config show command")

		userConfig, err := configs.LoadUserConfig()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to load user config: %v", err)
		}

		if configShowJSON {
			out := configOutput{
				ConfigPath:   configs.UserConfigPath(),
				BackendURL:   userConfig.BackendURL(),
				Token:        displayToken(userConfig.Account.Token),
				DeviceAlias:  userConfig.Device.Alias,
				DeviceName:   userConfig.Device.Name,
				SyncInterval: userConfig.SyncInterval().String(),
				KeysPath:     configs.UserNotesSettings.UserKeysPath,
				AuditLogPath: configs.UserNotesSettings.AuditLogPath,
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(ui.Info.Sprint("User Configuration") + " " + ui.Muted.Sprint(configs.UserConfigPath()) + ":")
		fmt.Println()
		printUserConfig(userConfig)
		fmt.Println()
		fmt.Printf("  %-14s %s\n", "Keys:", ui.Path.Sprint(configs.UserNotesSettings.UserKeysPath))
		fmt.Printf("  %-14s %s\n", "Audit log:", ui.Path.Sprint(configs.UserNotesSettings.AuditLogPath))
		return nil
	},
}

// displayToken masks all but the last four characters of the token.
func displayToken(token string) string {
	if configShowSecret || token == "" {
		return token
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

func printUserConfig(config *configs.UserConfig) {
	fmt.Printf("  %-14s %s\n", "Backend:", ui.Path.Sprint(config.BackendURL()))
	if config.Account.Token != "" {
		fmt.Printf("  %-14s %s\n", "Token:", displayToken(config.Account.Token))
	} else {
		fmt.Printf("  %-14s %s\n", "Token:", ui.Muted.Sprint("not set"))
	}
	if config.Device.Name != "" {
		fmt.Printf("  %-14s %s\n", "Device name:", ui.Success.Sprint(config.Device.Name))
	}
	if config.Device.Alias != "" {
		fmt.Printf("  %-14s %s\n", "Device alias:", ui.Highlight.Sprint(config.Device.Alias))
	}
	fmt.Printf("  %-14s %s\n", "Sync interval:", config.SyncInterval())
}
