package database

import (
	"glade/pkg/registry"

	"github.com/spf13/cobra"
)

var Registry registry.CommandRegistry

// flags shared by every database subcommand
var (
	configPath string
	baseDir    string
)

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Download and inspect reference databases",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default $GLADE_CONFIG or ~/.config/glade/settings.toml)")
	cmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "Storage directory (overrides base_dir from settings)")
	Registry.FillCommands(cmd)
	return cmd
}
