package report

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/dataset"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func ImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a report dataset",
		Long: `Import a report dataset written by "perfsight report export".

The dataset must use schema version 1. The report gets a new id and its
analysis is recomputed; nothing is stored when the file is malformed.`,
		Args: cobra.ExactArgs(1),
		Run:  runImport,
	}

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
	id, err := t.ImportReport(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error importing report: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported report %d from %s\n", id, args[0])
}

func ExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a report as a dataset file",
		Long: `Write a report with its metadata as a JSON dataset.

Without --out the file is named after the report and written to --dir.

Examples:
  perfsight report export 12
  perfsight report export 12 --out baseline.json`,
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
	path, err := t.ExportReport(context.Background(), id, dir, out)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error exporting report: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported report %d to %s\n", id, path)
}
