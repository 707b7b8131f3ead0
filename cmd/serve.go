package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/api"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveAddr       string
	serveVerbose    bool
	serveDebug      bool
)

func init() {
	ServeCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to a YAML server config")
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides the config)")
	ServeCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "enable verbose output")
	ServeCmd.Flags().BoolVarP(&serveDebug, "debug", "d", false, "enable debug output")
}

// ServeCmd runs the reference notes backend.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a notes backend",
	Long: `Runs the reference notes backend over HTTP.

The backend keeps devices, wrapped keys and encrypted notes per account
token. It never sees note plaintext or the account key. State is kept in
memory, and written to state_file when one is configured.

Configuration is read from the YAML file given with --config and from
KANUKA_NOTES_ADDR, KANUKA_NOTES_STATE_FILE, KANUKA_NOTES_RATE_LIMIT_RPS,
KANUKA_NOTES_RATE_LIMIT_BURST and KANUKA_NOTES_METRICS.

Example config:
  addr: 127.0.0.1:8790
  state_file: /var/lib/kanuka-notes/state.json
  rate_limit:
    rps: 20
    burst: 40
  metrics: true`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Logger{Verbose: serveVerbose, Debug: serveDebug}
		log.Infof("Starting serve command")

		ctx, cancel := signalContext()
		defer cancel()

		err := workflows.Serve(ctx, workflows.ServeOptions{
			ConfigPath: serveConfigPath,
			Addr:       serveAddr,
			Log:        log,
			OnListen: func(cfg api.ServerConfig) {
				fmt.Println(ui.Succeeded("Serving notes backend on " + ui.Path.Sprint("http://"+cfg.Addr)))
				if cfg.StateFile != "" {
					fmt.Println(ui.Muted.Sprint("state file " + cfg.StateFile))
				}
				if cfg.Metrics {
					fmt.Println(ui.Muted.Sprint("metrics at /metrics"))
				}
			},
		})
		if err != nil {
			return log.ErrorfAndReturn("server failed: %v", err)
		}
		fmt.Println(ui.Succeeded("Server stopped"))
		return nil
	},
}
