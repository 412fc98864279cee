package main

import (
	"github.com/spf13/cobra"

	"github.com/mediacutlet/nomadachi/internal/app"
	"github.com/mediacutlet/nomadachi/internal/config"
)

// NewServeCommand creates the serve command
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery tracking daemon",
		Long: `Starts the daemon: HTTP intake and status API, GPS file watching,
periodic state flushes and journal maintenance. Runs until SIGINT or
SIGTERM, then shuts down gracefully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Port = port
			}
			if bind != "" {
				cfg.BindAddress = bind
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			server, err := app.CreateServer(cfg, rootOpts.Logger)
			if err != nil {
				return err
			}
			return server.Run()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	cmd.Flags().StringVar(&bind, "bind", "", "bind address (overrides config)")

	return cmd
}
