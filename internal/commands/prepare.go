package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrepareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare [identity.csv transaction.csv output.csv]",
		Short: "Join and engineer the training tables",
		Long: `Reads the identity and transaction training tables, derives email
region and site features, expands categorical columns into indicator
columns and writes the inner join on TransactionID.`,
		Args: argsOrNone(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			opts := a.options()
			if len(args) == 3 {
				opts.IdentityPath, opts.TransactionPath, opts.OutputPath = args[0], args[1], args[2]
			} else {
				opts.OutputPath = a.cfg.Data.TrainPath
			}

			res, err := a.runner.Prepare(cmd.Context(), opts)
			if err := a.finish("prepare", res, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", res.Rows, res.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("identity", "", "identity table")
	flags.String("transaction", "", "transaction table")
	flags.String("features", "", "also write the training feature list here")
	flags.Bool("keep-na", true, "emit a _nan indicator column per categorical")

	return cmd
}
