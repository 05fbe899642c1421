package compare

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a comparison",
		Long:  `Delete a saved comparison. The reports it references are kept.`,
		Args:  cobra.ExactArgs(1),
		Run:   runDelete,
	}

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) {
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

	if err := env.Backend.DeleteComparison(context.Background(), id); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error deleting comparison: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted comparison %d\n", id)
}
