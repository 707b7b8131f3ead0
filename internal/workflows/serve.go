package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/api"
	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
)

// ServeOptions configures the serve workflow.
type ServeOptions struct {
	// ConfigPath is an optional YAML server config.
	ConfigPath string

	// Addr overrides the configured listen address when set.
	Addr string

	// OnListen is called with the resolved config before the server starts.
	OnListen func(api.ServerConfig)

	Log logger.Logger
}

// Serve runs the notes backend until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := api.LoadServerConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}

	var store *backend.MemoryStore
	if cfg.StateFile != "" {
		store, err = backend.OpenMemoryStore(cfg.StateFile)
		if err != nil {
			return fmt.Errorf("failed to open state file: %w", err)
		}
	} else {
		opts.Log.WarnfAlways("No state file configured, notes are kept in memory only")
		store = backend.NewMemoryStore()
	}

	if opts.OnListen != nil {
		opts.OnListen(cfg)
	}
	return api.NewServer(cfg, store, opts.Log).Run(ctx)
}
