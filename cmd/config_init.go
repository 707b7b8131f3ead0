package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/utils"

	"github.com/spf13/cobra"
)

var (
	configInitBackend    string
	configInitToken      string
	configInitDeviceName string
	configInitInterval   string
	configInitYes        bool
)

func init() {
	configInitCmd.Flags().StringVar(&configInitBackend, "backend", "", "backend URL")
	configInitCmd.Flags().StringVarP(&configInitToken, "token", "t", "", "account token")
	configInitCmd.Flags().StringVar(&configInitDeviceName, "device", "", "device name (defaults to hostname)")
	configInitCmd.Flags().StringVar(&configInitInterval, "interval", "", "sync interval, e.g. 5s")
	configInitCmd.Flags().BoolVarP(&configInitYes, "yes", "y", false, "accept defaults without prompting")
	ConfigCmd.AddCommand(configInitCmd)
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitBackend = ""
	configInitToken = ""
	configInitDeviceName = ""
	configInitInterval = ""
	configInitYes = false
}

// promptForInput prompts the user for input with an optional default value.
func promptForInput(reader *bufio.Reader, prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Printf("%s: ", prompt)
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// resolveSetting returns the flag value if set, the default when prompting is
// disabled, and the prompted value otherwise.
func resolveSetting(reader *bufio.Reader, flagValue, prompt, defaultValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if configInitYes {
		return defaultValue, nil
	}
	return promptForInput(reader, prompt, defaultValue)
}

func validateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend URL %q: expected http(s)://host[:port]", raw)
	}
	return nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize your user configuration",
	Long: `Sets up the kanuka-notes user configuration.

This command creates or updates the config file with the backend URL, the
account token, a device name and the sync interval. Values passed as flags
are used as is; missing values are prompted for, or take their defaults
with --yes.

Examples:
  # Interactive setup
  kanuka-notes config init

  # Non-interactive setup
  kanuka-notes config init --backend http://127.0.0.1:8790 --token my-account --device laptop --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config init command")

		if err := configs.EnsureUserDirectories(); err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to create user directories: %v", err)
		}

		userConfig, err := configs.LoadUserConfig()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to load user config: %v", err)
		}

		reader := bufio.NewReader(cmd.InOrStdin())
		if !configInitYes {
			fmt.Println(ui.Info.Sprint("Welcome to kanuka-notes!") + " Let's set up this device.")
			fmt.Println()
		}

		backendURL, err := resolveSetting(reader, configInitBackend, "Backend URL", userConfig.BackendURL())
		if err != nil {
			return err
		}
		if err := validateBackendURL(backendURL); err != nil {
			fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
			return nil
		}

		token, err := resolveSetting(reader, configInitToken, "Account token", userConfig.Account.Token)
		if err != nil {
			return err
		}

		defaultDevice := userConfig.Device.Name
		if defaultDevice == "" {
			defaultDevice = utils.DefaultDeviceName()
		}
		deviceName, err := resolveSetting(reader, configInitDeviceName, "Device name", defaultDevice)
		if err != nil {
			return err
		}
		deviceName = utils.SanitizeDeviceName(deviceName)
		if !utils.IsValidDeviceName(deviceName) {
			fmt.Println(ui.Error.Sprint("✗") + " Invalid device name: " + ui.Code.Sprint(deviceName) + " (must start with a letter or digit)")
			return nil
		}

		interval, err := resolveSetting(reader, configInitInterval, "Sync interval", userConfig.SyncInterval().String())
		if err != nil {
			return err
		}
		if d, err := time.ParseDuration(interval); err != nil || d <= 0 {
			fmt.Println(ui.Error.Sprint("✗") + " Invalid sync interval: " + ui.Code.Sprint(interval))
			return nil
		}

		userConfig.Backend.URL = strings.TrimRight(backendURL, "/")
		userConfig.Account.Token = token
		userConfig.Device.Name = deviceName
		userConfig.Sync.Interval = interval

		if err := configs.SaveUserConfig(userConfig); err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to save user config: %v", err)
		}
		ConfigLogger.Infof("Saved user config to %s", configs.UserConfigPath())

		fmt.Println(ui.Succeeded("Configuration saved to " + ui.Path.Sprint(configs.UserConfigPath())))
		fmt.Println()
		printUserConfig(userConfig)
		if token == "" {
			fmt.Println()
			fmt.Println(ui.Hint("No account token set. Pass " + ui.Flag.Sprint("--token") + " to " + ui.Code.Sprint("kanuka-notes notes login")))
		}
		return nil
	},
}
