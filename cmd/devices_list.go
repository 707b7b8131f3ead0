package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var devicesListJSON bool

func init() {
	devicesListCmd.Flags().BoolVar(&devicesListJSON, "json", false, "output in JSON format")
}

type deviceOutput struct {
	Alias   string `json:"alias"`
	Current bool   `json:"current"`
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the devices registered for the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		DevicesLogger.Infof("Starting devices list command")

		ctx, cancel := signalContext()
		defer cancel()

		result, err := workflows.ListDevices(ctx, sessionOptions(DevicesLogger))
		if err != nil {
			if devicesListJSON {
				return DevicesLogger.ErrorfAndReturn("failed to list devices: %v", err)
			}
			fmt.Println(failureMessage("Failed to list devices", err))
			return nil
		}
		DevicesLogger.Debugf("Backend lists %d devices", len(result.Aliases))

		if devicesListJSON {
			out := make([]deviceOutput, 0, len(result.Aliases))
			for _, alias := range result.Aliases {
				out = append(out, deviceOutput{Alias: alias, Current: alias == result.Current})
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal devices: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(result.Aliases) == 0 {
			fmt.Println(ui.Muted.Sprint("no devices registered"))
			return nil
		}
		for _, alias := range result.Aliases {
			line := "  " + ui.Highlight.Sprint(alias)
			if alias == result.Current {
				line += " " + ui.Muted.Sprint("this device")
			}
			fmt.Println(line)
		}
		return nil
	},
}
