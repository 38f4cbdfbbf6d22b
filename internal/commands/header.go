package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newHeaderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "header [prepared.csv feature-list]",
		Short: "Write the feature list of a prepared training table",
		Args:  argsOrNone(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			trainPath, flPath := a.cfg.Data.TrainPath, a.cfg.Model.FeatureListPath
			if len(args) == 2 {
				trainPath, flPath = args[0], args[1]
			}
			if flPath == "" {
				return errors.New("no feature list path: pass one or set model.feature_list_path")
			}

			fl, err := a.runner.WriteFeatureList(trainPath, flPath)
			if err := a.finish("header", nil, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d features to %s\n", len(fl), flPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("train", "", "prepared training table")
	flags.String("features", "", "feature list to write")

	return cmd
}
