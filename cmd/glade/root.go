package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"glade/cmd/glade/database"
	"glade/pkg/config"
	"glade/pkg/logging"
	"glade/pkg/registry"
	"glade/pkg/version"

	"github.com/spf13/cobra"
)

var Registry registry.CommandRegistry

func init() {
	Registry.FromGetter(database.GetCommand)
}

func main() {
	level := logging.Setup()

	// Load config early to set driver weights
	if cfg, err := config.Load(); err != nil {
		slog.Debug("failed to load config", "error", err)
	} else {
		cfg.ApplyDriverWeights()
	}

	var verbose bool
	cmd := &cobra.Command{
		Use:           "glade",
		Short:         "glade - checksum-verified reference database downloader",
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if verbose {
				level.Set(slog.LevelDebug)
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	Registry.FillCommands(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted")
		} else {
			slog.Error("error", "err", err)
		}
		stop()
		os.Exit(1)
	}
}
