package config

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/tui"
	"nathanbeddoewebdev/perfsight/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// GetCommand returns the "config get" command.
func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value",
		Long: "Print a persistent configuration value.\n\n" +
			"Without a key every setting is listed, or the interactive editor opens\n" +
			"when running in a terminal.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  perfsight config get backend\n" +
			"  perfsight config get autosave-delay-ms --effective\n" +
			"  perfsight config get -o json",
		Args:         cobra.MaximumNArgs(1),
		RunE:         runGet,
		SilenceUsage: true,
	}

	cmd.Flags().String("key", "", "Configuration key to fetch")
	cmd.Flags().Bool("effective", false, "Print the default when the key is not set")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("key")
	if len(args) == 1 {
		name = args[0]
	}
	name = strings.TrimSpace(name)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if name == "" {
		if cmdutil.Output(cmd) != "json" && term.IsTerminal(int(os.Stdout.Fd())) {
			if err := tui.RunConfigView(); err != nil {
				return fmt.Errorf("config view failed: %w", err)
			}
			return nil
		}
		printKeys(cmd, cfg)
		return nil
	}

	spec := config.Lookup(util.NormalizeKey(name))
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", name, strings.Join(config.KeyNames(), ", "))
	}

	value := spec.Get(cfg)
	if effective, _ := cmd.Flags().GetBool("effective"); effective && value == "" {
		value = spec.Default
	}
	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, keyValue{Key: spec.Name, Value: value, Default: spec.Default})
		return nil
	}
	if value == "" {
		value = "not set"
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

// keyValue is the JSON shape of one configuration key.
type keyValue struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Default string `json:"default,omitempty"`
}

// printKeys lists every key with its stored value and default.
func printKeys(cmd *cobra.Command, cfg *config.Config) {
	rows := make([]keyValue, len(config.Keys))
	for i, spec := range config.Keys {
		rows[i] = keyValue{Key: spec.Name, Value: spec.Get(cfg), Default: spec.Default}
	}

	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, rows)
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tDEFAULT")
	fmt.Fprintln(w, "---\t-----\t-------")
	for _, r := range rows {
		value, def := r.Value, r.Default
		if value == "" {
			value = "-"
		}
		if def == "" {
			def = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Key, value, def)
	}
	w.Flush()
}
