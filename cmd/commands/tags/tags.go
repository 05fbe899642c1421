// Package tags implements "perfsight tags".
package tags

import (
	"context"
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/spf13/cobra"
)

// NewCommand returns the "tags" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List known report tags",
		Long: `List every tag used by stored reports with the number of reports
carrying it, most used first.`,
		Args: cobra.NoArgs,
		Run:  runTags,
	}

	cmdutil.AddBackendFlags(cmd)
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runTags(cmd *cobra.Command, args []string) {
	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	tags, err := env.Backend.GetKnownTags(context.Background())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error listing tags: %v\n", err)
		return
	}

	if cmdutil.Output(cmd) == "json" {
		if tags == nil {
			tags = []domain.TagStat{}
		}
		cmdutil.PrintJSON(cmd, tags)
		return
	}

	if len(tags) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tags found.")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TAG\tREPORTS")
	fmt.Fprintln(w, "---\t-------")
	for _, t := range tags {
		fmt.Fprintf(w, "%s\t%d\n", t.Tag, t.Count)
	}
	w.Flush()
}
