package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraudline-dev/fraudline/internal/buildinfo"
	"github.com/fraudline-dev/fraudline/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fraudline",
		Short:   "Transaction fraud scoring pipeline",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", config.FileName, "config file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("metrics-textfile", "", "write run metrics to this Prometheus textfile")
	flags.Bool("run-log", true, "append the run to logs/run-log.csv")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newPrepareCommand())
	rootCmd.AddCommand(newHeaderCommand())
	rootCmd.AddCommand(newPredictCommand())
	rootCmd.AddCommand(newEvaluateCommand())
	rootCmd.AddCommand(newReconcileCommand())

	return rootCmd
}

// argsOrNone accepts either no positional arguments or exactly n.
func argsOrNone(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != n {
			return fmt.Errorf("accepts 0 or %d arg(s), received %d", n, len(args))
		}
		return nil
	}
}
