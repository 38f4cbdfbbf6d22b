package commands

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fraudline-dev/fraudline/internal/config"
	"github.com/fraudline-dev/fraudline/internal/logging"
	"github.com/fraudline-dev/fraudline/internal/pipeline"
	"github.com/fraudline-dev/fraudline/internal/runlog"
	"github.com/fraudline-dev/fraudline/internal/telemetry"
)

// app is the per-invocation wiring shared by pipeline commands.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *telemetry.Recorder
	runner  *pipeline.Runner
	root    string // project directory holding logs/
	start   time.Time
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	rec := telemetry.New()
	return &app{
		cfg:     cfg,
		log:     logger,
		metrics: rec,
		runner:  pipeline.NewRunner(logger, rec),
		root:    filepath.Dir(path),
		start:   time.Now(),
	}, nil
}

func (a *app) options() pipeline.Options {
	return pipeline.OptionsFromConfig(a.cfg)
}

// finish records the outcome of command and passes err through. Failures to
// write the run log or metrics are logged, not returned.
func (a *app) finish(command string, res *pipeline.Result, err error) error {
	a.metrics.ObserveRun(command, a.start, err)

	if err != nil {
		a.log.WithError(err).WithField("command", command).Error("run failed")
	}

	if err == nil && res != nil && a.cfg.Output.RunLog {
		entry := runlog.Entry{
			Timestamp: a.start.UTC(),
			RunID:     res.RunID,
			Command:   command,
			Rows:      res.Rows,
			Filled:    len(res.Report.Filled),
			Dropped:   len(res.Report.Dropped),
			Output:    res.Output,
		}
		if werr := runlog.Append(a.root, []runlog.Entry{entry}); werr != nil {
			a.log.WithError(werr).Warn("failed to write run log")
		}
	}

	if path := a.cfg.Output.MetricsTextfile; path != "" {
		if werr := a.metrics.WriteTextfile(path); werr != nil {
			a.log.WithError(werr).Warn("failed to write metrics textfile")
		}
	}
	return err
}
