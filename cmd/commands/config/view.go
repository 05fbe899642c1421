package config

import (
	"fmt"
	"os"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ViewCommand returns the "config view" command.
func ViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse and edit configuration interactively",
		Long: "Open the interactive config editor. Outside a terminal, or with\n" +
			"-o json, every key is printed instead.",
		Args:         cobra.NoArgs,
		RunE:         runView,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runView(cmd *cobra.Command, args []string) error {
	if cmdutil.Output(cmd) == "json" || !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printKeys(cmd, cfg)
		return nil
	}
	if err := tui.RunConfigView(); err != nil {
		return fmt.Errorf("config view failed: %w", err)
	}
	return nil
}
