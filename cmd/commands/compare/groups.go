package compare

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/dataset"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func GroupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups [id]",
		Short: "Compare tag-defined groups of reports",
		Long: `Aggregate the reports matching each tag group and compare the groups
against a baseline group.

Groups come from repeated --group flags written as name:mode:tag1,tag2
(mode is any or all, default any) or from a YAML --groups-file. The pool
is the reports of comparison <id>, or every stored report with --all.

Examples:
  perfsight compare groups 2 --group main:main --group feature:all:feature,linux --baseline main
  perfsight compare groups --all --groups-file groups.yaml`,
		Args: cobra.MaximumNArgs(1),
		Run:  runGroups,
	}

	cmd.Flags().StringArray("group", nil, "Group definition name:mode:tags (repeatable)")
	cmd.Flags().String("groups-file", "", "YAML file with group definitions")
	cmd.Flags().String("baseline", "", "Baseline group name")
	cmd.Flags().Bool("all", false, "Pool every stored report")
	cmd.MarkFlagsMutuallyExclusive("group", "groups-file")
	cmd.MarkFlagsOneRequired("group", "groups-file")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runGroups(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")
	if all == (len(args) == 1) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: pass either a comparison id or --all\n")
		return
	}

	defs, baseline, err := groupDefs(cmd)
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

	ctx := context.Background()
	var pool []int64
	if !all {
		id, err := cmdutil.ParseID(args[0])
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		cfg, err := env.Backend.GetComparisonDetail(ctx, id)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error loading comparison: %v\n", err)
			return
		}
		pool = cfg.ReportIDs
	}

	result, err := env.Service().CompareGroups(ctx, pool, defs, baseline)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error comparing groups: %v\n", err)
		return
	}

	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, result)
		return
	}
	printGroups(cmd, result)
}

// groupDefs returns the group definitions and baseline name from the flags.
// --baseline overrides the baseline of a groups file.
func groupDefs(cmd *cobra.Command) ([]domain.GroupDef, string, error) {
	baseline, _ := cmd.Flags().GetString("baseline")

	if path, _ := cmd.Flags().GetString("groups-file"); path != "" {
		gf, err := dataset.LoadGroupFile(afero.NewOsFs(), path)
		if err != nil {
			return nil, "", err
		}
		if baseline == "" {
			baseline = gf.Baseline
		}
		return gf.Groups, baseline, nil
	}

	raw, _ := cmd.Flags().GetStringArray("group")
	defs := make([]domain.GroupDef, 0, len(raw))
	for _, s := range raw {
		def, err := parseGroupFlag(s)
		if err != nil {
			return nil, "", err
		}
		defs = append(defs, def)
	}
	return defs, baseline, nil
}
