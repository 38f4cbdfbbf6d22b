package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fraudline-dev/fraudline/internal/evaluate"
	"github.com/fraudline-dev/fraudline/internal/score"
)

func newEvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [prepared.csv model.txt metrics-dir]",
		Short: "Compute ROC AUC and PR AUC on the validation split",
		Args:  argsOrNone(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			opts := a.options()
			if len(args) == 3 {
				opts.TrainPath, opts.ModelPath, opts.MetricsDir = args[0], args[1], args[2]
			}

			model, err := score.LoadLightGBM(opts.ModelPath)
			if err != nil {
				return a.finish("evaluate", nil, err)
			}

			res, err := a.runner.Evaluate(cmd.Context(), opts, model)
			if err := a.finish("evaluate", res, err); err != nil {
				return err
			}

			names := make([]string, 0, len(res.Metrics))
			for name := range res.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", name, evaluate.FormatMetric(res.Metrics[name]))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("train", "", "prepared training table")
	flags.String("model", "", "LightGBM model file")
	flags.String("features", "", "feature list the model was trained on")
	flags.String("metrics-dir", "", "directory for .metric files")
	flags.Float64("test-ratio", 0.25, "validation share of the training rows")
	flags.Int64("seed", 42, "split seed")

	return cmd
}
