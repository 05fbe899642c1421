package compare

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/dataset"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func ExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a comparison with its reports as a bundle",
		Long: `Write a comparison, its selections and all of its reports as one JSON
bundle that "perfsight compare import" can restore.

Examples:
  perfsight compare export 2
  perfsight compare export 2 --out release.json`,
		Args: cobra.ExactArgs(1),
		Run:  runExport,
	}

	cmd.Flags().String("out", "", "Output file path")
	cmd.Flags().String("dir", ".", "Directory for the generated file name")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) {
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

	out, _ := cmd.Flags().GetString("out")
	dir, _ := cmd.Flags().GetString("dir")

	t := dataset.NewTransfer(afero.NewOsFs(), env.Backend, dataset.WithLogger(env.Log.Named("dataset")))
	path, err := t.ExportComparison(context.Background(), id, dir, out)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error exporting comparison: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported comparison %d to %s\n", id, path)
}

func ImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a comparison bundle",
		Long: `Import a bundle written by "perfsight compare export".

Every report is stored under a new id and the comparison is recreated with
its baseline and selections remapped. Nothing is kept when any write fails.`,
		Args: cobra.ExactArgs(1),
		Run:  runImport,
	}

	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runImport(cmd *cobra.Command, args []string) {
	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	t := dataset.NewTransfer(afero.NewOsFs(), env.Backend, dataset.WithLogger(env.Log.Named("dataset")))
	res, err := t.ImportComparison(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error importing comparison: %v\n", err)
		return
	}

	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, res)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported comparison %d with reports %s from %s\n",
		res.ComparisonID, joinIDs(res.ImportedIDs), args[0])
}
