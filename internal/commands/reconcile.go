package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <table.csv> <feature-list> <output.csv>",
		Short: "Conform a table's columns to a feature list",
		Long: `Drops columns not in the feature list, adds missing ones filled with
zero and orders the result by feature list position.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			res, err := a.runner.ReconcileFile(args[0], args[1], args[2])
			if err := a.finish("reconcile", res, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s (%d filled, %d dropped)\n",
				res.Rows, res.Output, len(res.Report.Filled), len(res.Report.Dropped))
			return nil
		},
	}
}
