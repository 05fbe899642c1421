package compare

import (
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/tui"

	"github.com/spf13/cobra"
)

func ViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Explore a comparison interactively",
		Long: `Open a full-screen view of a comparison.

Keys:
  j/k     move between processes
  space   toggle the focused process
  tab     switch between CPU and memory
  b       make the focused report the baseline
  r       reload from the backend
  q       save and quit`,
		Args: cobra.ExactArgs(1),
		Run:  runView,
	}

	return cmd
}

func runView(cmd *cobra.Command, args []string) {
	id, err := cmdutil.ParseID(args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	if err := tui.RunCompareView(cmd.Context(), env.Service(), id, env.BackendName); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
}
