package config

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value. An empty value unsets the key.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  perfsight config set backend http\n" +
			"  perfsight config set server-url http://perf.internal:7878",
		Args: cobra.ExactArgs(2),
		Run:  runSet,
	}

	return cmd
}

// caseInsensitive lists the keys whose values are normalized to lower case
// before they are stored.
var caseInsensitive = map[string]bool{
	"backend":   true,
	"log-level": true,
}

func runSet(cmd *cobra.Command, args []string) {
	key := util.NormalizeKey(args[0])

	spec := config.Lookup(key)
	if spec == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: unknown configuration key %q\n", args[0])
		fmt.Fprintf(cmd.ErrOrStderr(), "Valid keys: %s\n", strings.Join(config.KeyNames(), ", "))
		return
	}

	value := strings.TrimSpace(args[1])
	if caseInsensitive[spec.Name] {
		value = util.NormalizeKey(value)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if err := spec.Set(cfg, value); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: invalid value %q for %s: %v\n", value, spec.Name, err)
		return
	}
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, value)
}
