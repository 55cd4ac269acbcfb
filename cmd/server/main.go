// Command server runs the certification study tracker.
//
//	server serve              start the HTTP API
//	server migrate            create or upgrade the database schema
//	server seed --file F      load the certification catalog from YAML
//
// Every subcommand reads configuration through internal/config: defaults,
// then ./configs/config.yaml or ./config.yaml (or --config), then .env and the
// environment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/cert-tracker/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once PersistentPreRunE has run.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "server",
		Short:   "Certification study tracker",
		Version: version,
		// Errors are logged by the subcommands; usage is only useful for flag
		// mistakes, which cobra reports before RunE.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			level, _ := config.ParseLevel(cfg.Log.Level)
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./configs/config.yaml or ./config.yaml)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newSeedCmd(a))
	return root
}

// fail logs err and returns it so cobra exits non-zero.
func (a *app) fail(msg string, err error) error {
	a.logger.Error(msg, slog.String("error", err.Error()))
	return fmt.Errorf("%s: %w", msg, err)
}
