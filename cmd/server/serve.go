package main

import (
	"github.com/spf13/cobra"

	"github.com/sakif/cert-tracker/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateServe(); err != nil {
				return a.fail("invalid configuration", err)
			}

			srv, err := server.New(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return a.fail("failed to create server", err)
			}

			// Run blocks until the command context is cancelled by SIGINT or
			// SIGTERM and closes the server's resources before returning.
			if err := srv.Run(cmd.Context()); err != nil {
				return a.fail("server error", err)
			}
			return nil
		},
	}
}
