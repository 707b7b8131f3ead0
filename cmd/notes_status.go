package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/keysync"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetStatusCommandState() {
	statusJSONOutput = false
}

// statusOutput is the JSON form of the status command.
type statusOutput struct {
	LoggedIn    bool   `json:"logged_in"`
	Alias       string `json:"alias,omitempty"`
	DeviceName  string `json:"device_name,omitempty"`
	BackendURL  string `json:"backend_url,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Registered  bool   `json:"registered"`
	State       string `json:"state"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show this device's registration and sync state",
	Long: `Shows the device alias, key fingerprint, backend URL and whether the
backend holds a copy of the account key for this device.

Status never generates keys or registers the device.

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		ctx, cancel := signalContext()
		defer cancel()

		result, err := workflows.Status(ctx, sessionOptions(Logger))
		if err != nil {
			if statusJSONOutput {
				return Logger.ErrorfAndReturn("failed to get status: %v", err)
			}
			fmt.Println(failureMessage("Failed to get status", err))
			return nil
		}

		if statusJSONOutput {
			return printStatusJSON(result)
		}
		printStatus(result)
		return nil
	},
}

func printStatusJSON(result *workflows.StatusResult) error {
	out := statusOutput{
		LoggedIn:    result.LoggedIn,
		Alias:       result.Alias,
		DeviceName:  result.DeviceName,
		BackendURL:  result.BackendURL,
		Fingerprint: result.Fingerprint,
		Registered:  result.Registered,
		State:       result.State.String(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printStatus(result *workflows.StatusResult) {
	if !result.LoggedIn {
		fmt.Println(ui.Error.Sprint("✗") + " Not logged in")
		fmt.Println(ui.Hint("Run " + ui.Code.Sprint("kanuka-notes notes login --token <account token>")))
		return
	}

	fmt.Printf("Backend:     %s\n", ui.Path.Sprint(result.BackendURL))
	if result.Alias != "" {
		name := ""
		if result.DeviceName != "" {
			name = " " + ui.Muted.Sprint(result.DeviceName)
		}
		fmt.Printf("Device:      %s%s\n", ui.Highlight.Sprint(result.Alias), name)
	}
	if result.Fingerprint != "" {
		fmt.Printf("Key:         %s\n", result.Fingerprint)
	}
	fmt.Printf("State:       %s\n", ui.Highlight.Sprint(result.State))
	fmt.Println()

	switch {
	case result.State == keysync.StateSynced:
		fmt.Println(ui.Succeeded("This device holds the account key"))
	case result.State == keysync.StateWaiting:
		fmt.Println(ui.Warning.Sprint("!") + " Registered, waiting for another device to share the account key")
	case result.Fingerprint == "":
		fmt.Println(ui.Hint("No device keys yet. Run " + ui.Code.Sprint("kanuka-notes notes login")))
	default:
		fmt.Println(ui.Warning.Sprint("!") + " This device is not registered with the backend")
		fmt.Println(ui.Hint("Run " + ui.Code.Sprint("kanuka-notes notes login") + " to register it"))
	}
}
