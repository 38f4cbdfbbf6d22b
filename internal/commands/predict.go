package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraudline-dev/fraudline/internal/score"
)

func newPredictCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [identity.csv transaction.csv model.txt [feature-list] submission.csv]",
		Short: "Score test transactions with a trained model",
		Long: `Engineers the test tables exactly as prepare does, conforms the result
to the model's feature list and writes a TransactionID,isFraud submission.
Feature columns the model expects but the test data lacks are filled with
zero; columns the model never saw are dropped.`,
		Args: func(cmd *cobra.Command, args []string) error {
			switch len(args) {
			case 0, 4, 5:
				return nil
			}
			return fmt.Errorf("accepts 0, 4 or 5 arg(s), received %d", len(args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			opts := a.options()
			switch len(args) {
			case 4:
				opts.IdentityPath, opts.TransactionPath, opts.ModelPath, opts.OutputPath = args[0], args[1], args[2], args[3]
			case 5:
				opts.IdentityPath, opts.TransactionPath, opts.ModelPath = args[0], args[1], args[2]
				opts.FeatureListPath, opts.OutputPath = args[3], args[4]
			}

			model, err := score.LoadLightGBM(opts.ModelPath)
			if err != nil {
				return a.finish("predict", nil, err)
			}

			res, err := a.runner.Predict(cmd.Context(), opts, model)
			if err := a.finish("predict", res, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scored %d transactions (%d features filled, %d dropped) to %s\n",
				res.Rows, len(res.Report.Filled), len(res.Report.Dropped), res.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("identity", "", "identity table")
	flags.String("transaction", "", "transaction table")
	flags.String("model", "", "LightGBM model file")
	flags.String("features", "", "feature list the model was trained on")
	flags.String("output", "", "submission file")
	flags.Bool("keep-na", true, "emit a _nan indicator column per categorical")
	flags.Int("expected-rows", 0, "fail unless the submission has this many rows")

	return cmd
}
