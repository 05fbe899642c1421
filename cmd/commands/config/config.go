package config

import (
	"nathanbeddoewebdev/perfsight/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage perfsight configuration",
		Long: "View and modify persistent perfsight settings.\n\n" +
			"Configuration is stored at ~/.config/perfsight/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())
	cmd.AddCommand(ViewCommand())

	return cmd
}
