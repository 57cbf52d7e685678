package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcaohuy/domainchat/internal/app"
	"github.com/dcaohuy/domainchat/internal/config"
)

// newServeCommand creates the serve command: load config, wire the
// application, run the HTTP server until interrupted.
func newServeCommand(verbose *bool) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat domain HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(*verbose)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if addr != "" {
				cfg.ServerAddr = addr
			}

			a, err := app.Setup(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initializing application: %w", err)
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("closing application", "error", err)
				}
			}()

			return a.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}
