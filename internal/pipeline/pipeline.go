package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fraudline-dev/fraudline/internal/evaluate"
	"github.com/fraudline-dev/fraudline/internal/features"
	"github.com/fraudline-dev/fraudline/internal/frame"
	"github.com/fraudline-dev/fraudline/internal/model"
	"github.com/fraudline-dev/fraudline/internal/schema"
	"github.com/fraudline-dev/fraudline/internal/score"
	"github.com/fraudline-dev/fraudline/internal/submission"
	"github.com/fraudline-dev/fraudline/internal/telemetry"
)

// ErrRowCount is returned when a run produces a different number of rows
// than configured.
var ErrRowCount = errors.New("unexpected row count")

// Result summarizes one run.
type Result struct {
	RunID   string
	Rows    int
	Report  schema.Report
	Output  string
	Metrics map[string]float64
}

// Runner executes pipeline commands.
type Runner struct {
	log       logrus.FieldLogger
	telemetry *telemetry.Recorder
}

// NewRunner creates a Runner.
func NewRunner(log logrus.FieldLogger, rec *telemetry.Recorder) *Runner {
	return &Runner{log: log, telemetry: rec}
}

// LoadTables reads the identity and transaction tables concurrently and
// engineers their categorical features with the same keepNA policy.
func (r *Runner) LoadTables(ctx context.Context, opts Options) (identity, transactions *frame.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := frame.ReadCSVFile(opts.IdentityPath)
		if err != nil {
			return err
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		identity, err = features.ExplodeCategoricals(t, opts.KeepNA)
		if err != nil {
			return fmt.Errorf("identity features: %w", err)
		}
		r.log.WithFields(logrus.Fields{"path": opts.IdentityPath, "rows": identity.Rows(), "columns": identity.Width()}).Info("loaded identity table")
		return nil
	})

	g.Go(func() error {
		t, err := frame.ReadCSVFile(opts.TransactionPath)
		if err != nil {
			return err
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		t, err = features.AddEmailFeatures(t)
		if err != nil {
			return fmt.Errorf("transaction features: %w", err)
		}
		transactions, err = features.ExplodeCategoricals(t, opts.KeepNA)
		if err != nil {
			return fmt.Errorf("transaction features: %w", err)
		}
		r.log.WithFields(logrus.Fields{"path": opts.TransactionPath, "rows": transactions.Rows(), "columns": transactions.Width()}).Info("loaded transaction table")
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return identity, transactions, nil
}

// Prepare builds the training table: identity and transaction rows present
// in both sources, joined on TransactionID. When FeatureListPath is set the
// training feature list is written alongside.
func (r *Runner) Prepare(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Output: opts.OutputPath}
	log := r.log.WithField("run_id", res.RunID)

	identity, transactions, err := r.LoadTables(ctx, opts)
	if err != nil {
		return nil, err
	}

	train, err := frame.Merge(identity, transactions, IDColumn, frame.Inner)
	if err != nil {
		return nil, fmt.Errorf("joining training tables: %w", err)
	}
	if dups := train.Duplicates(); len(dups) > 0 {
		log.WithField("columns", dups).Warn("dropping duplicate columns")
		train = train.DedupColumns()
	}
	res.Rows = train.Rows()

	if err := frame.WriteCSVFile(opts.OutputPath, train); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"rows": train.Rows(), "columns": train.Width(), "path": opts.OutputPath}).Info("wrote training table")

	if opts.FeatureListPath != "" {
		fl := schema.FromTable(train, IDColumn, LabelColumn)
		if err := schema.SaveFeatureList(opts.FeatureListPath, fl); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"features": len(fl), "path": opts.FeatureListPath}).Info("wrote feature list")
	}
	return res, nil
}

// WriteFeatureList records the feature list of an already prepared training table.
func (r *Runner) WriteFeatureList(trainPath, featureListPath string) (schema.FeatureList, error) {
	train, err := frame.ReadCSVFile(trainPath)
	if err != nil {
		return nil, err
	}
	fl := schema.FromTable(train.DedupColumns(), IDColumn, LabelColumn)
	if err := fl.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", trainPath, err)
	}
	if err := schema.SaveFeatureList(featureListPath, fl); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"features": len(fl), "path": featureListPath}).Info("wrote feature list")
	return fl, nil
}

// Predict scores every transaction in the test tables and writes a
// TransactionID,isFraud submission.
func (r *Runner) Predict(ctx context.Context, opts Options, scorer score.Scorer) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Output: opts.OutputPath}
	log := r.log.WithField("run_id", res.RunID)

	fl, err := r.featureList(opts, scorer)
	if err != nil {
		return nil, err
	}

	identity, transactions, err := r.LoadTables(ctx, opts)
	if err != nil {
		return nil, err
	}

	test, err := frame.Merge(identity, transactions, IDColumn, frame.Right)
	if err != nil {
		return nil, fmt.Errorf("joining test tables: %w", err)
	}
	if opts.ExpectedRows > 0 && test.Rows() != opts.ExpectedRows {
		return nil, fmt.Errorf("test table has %d rows, want %d: %w", test.Rows(), opts.ExpectedRows, ErrRowCount)
	}

	ids, ok := test.Column(IDColumn)
	if !ok {
		return nil, fmt.Errorf("test table: %q: %w", IDColumn, frame.ErrUnknownColumn)
	}
	x := test.Drop(IDColumn)
	if dups := x.Duplicates(); len(dups) > 0 {
		log.WithField("columns", dups).Warn("dropping duplicate columns")
		x = x.DedupColumns()
	}

	probs, rep, err := r.score(ctx, log, x, fl, scorer)
	if err != nil {
		return nil, err
	}
	res.Report = rep
	res.Rows = len(probs)

	preds := make([]model.Prediction, len(probs))
	for i, p := range probs {
		preds[i] = model.Prediction{TransactionID: frame.FormatCell(ids, i), IsFraud: p}
	}
	if err := submission.Save(opts.OutputPath, preds); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"rows": len(preds), "path": opts.OutputPath}).Info("wrote submission")
	return res, nil
}

// Evaluate scores the validation partition of a prepared training table and
// writes auc.metric and pr_auc.metric to MetricsDir. The partition is the
// seeded TestRatio split, so a model fit on the complementary partition
// with the same seed is evaluated on unseen rows.
func (r *Runner) Evaluate(ctx context.Context, opts Options, scorer score.Scorer) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Output: opts.MetricsDir}
	log := r.log.WithField("run_id", res.RunID)

	fl, err := r.featureList(opts, scorer)
	if err != nil {
		return nil, err
	}

	train, err := frame.ReadCSVFile(opts.TrainPath)
	if err != nil {
		return nil, err
	}
	_, val, err := frame.Split(train, opts.TestRatio, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", opts.TrainPath, err)
	}
	log.WithFields(logrus.Fields{"rows": train.Rows(), "validation_rows": val.Rows()}).Info("split training table")

	labels, err := labelsOf(val)
	if err != nil {
		return nil, err
	}
	ids, ok := val.Column(IDColumn)
	if !ok {
		return nil, fmt.Errorf("validation table: %q: %w", IDColumn, frame.ErrUnknownColumn)
	}

	x := val.Drop(IDColumn, LabelColumn).DedupColumns()
	probs, rep, err := r.score(ctx, log, x, fl, scorer)
	if err != nil {
		return nil, err
	}
	res.Report = rep
	res.Rows = len(probs)

	scored := make([]model.Labeled, len(probs))
	for i, p := range probs {
		scored[i] = model.Labeled{TransactionID: frame.FormatCell(ids, i), Label: labels[i], Score: p}
	}
	res.Metrics, err = metricsOf(scored)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{"auc", "pr_auc"} {
		path, err := evaluate.WriteMetric(opts.MetricsDir, name, res.Metrics[name])
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"metric": name, "value": res.Metrics[name], "path": path}).Info("wrote metric")
	}
	return res, nil
}

// ReconcileFile conforms the table at inPath to the feature list at
// featureListPath and writes the result to outPath.
func (r *Runner) ReconcileFile(inPath, featureListPath, outPath string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Output: outPath}

	fl, err := schema.LoadFeatureList(featureListPath)
	if err != nil {
		return nil, err
	}
	t, err := frame.ReadCSVFile(inPath)
	if err != nil {
		return nil, err
	}
	out, rep, err := schema.Reconcile(t, fl)
	if err != nil {
		return nil, fmt.Errorf("reconciling %s: %w", inPath, err)
	}
	if err := frame.WriteCSVFile(outPath, out); err != nil {
		return nil, err
	}

	res.Rows = out.Rows()
	res.Report = rep
	r.logReport(r.log.WithField("run_id", res.RunID), rep)
	return res, nil
}

// featureList resolves the authoritative feature list. A model that records
// its own feature names is authoritative; a configured feature list file
// must then agree with it.
func (r *Runner) featureList(opts Options, scorer score.Scorer) (schema.FeatureList, error) {
	var fromFile schema.FeatureList
	if opts.FeatureListPath != "" {
		var err error
		fromFile, err = schema.LoadFeatureList(opts.FeatureListPath)
		if err != nil {
			return nil, err
		}
	}

	ms, ok := scorer.(score.ModelScorer)
	if !ok {
		if fromFile == nil {
			return nil, fmt.Errorf("no feature list configured and the model records none: %w", schema.ErrSchemaMismatch)
		}
		return fromFile, nil
	}

	fromModel := ms.Features()
	if fromFile != nil && !slices.Equal(fromFile, fromModel) {
		return nil, fmt.Errorf("feature list %s disagrees with the model (%d vs %d features): %w",
			opts.FeatureListPath, len(fromFile), len(fromModel), schema.ErrSchemaMismatch)
	}
	return fromModel, nil
}

func (r *Runner) score(ctx context.Context, log logrus.FieldLogger, x *frame.Table, fl schema.FeatureList, scorer score.Scorer) ([]float64, schema.Report, error) {
	rec, rep, err := schema.Reconcile(x, fl)
	if err != nil {
		return nil, rep, fmt.Errorf("reconciling features: %w", err)
	}
	r.logReport(log, rep)

	if err := ctx.Err(); err != nil {
		return nil, rep, err
	}

	m, err := rec.Dense()
	if err != nil {
		return nil, rep, fmt.Errorf("building feature matrix: %w", err)
	}
	probs, err := scorer.PredictProba(m)
	if err != nil {
		return nil, rep, fmt.Errorf("scoring: %w", err)
	}
	if len(probs) != rec.Rows() {
		return nil, rep, fmt.Errorf("scorer returned %d probabilities for %d rows: %w", len(probs), rec.Rows(), ErrRowCount)
	}

	r.telemetry.ObserveReconcile(rec.Rows(), len(rep.Filled), len(rep.Dropped))
	return probs, rep, nil
}

func (r *Runner) logReport(log logrus.FieldLogger, rep schema.Report) {
	for _, name := range rep.Filled {
		log.WithField("feature", name).Debug("missing feature filled with 0")
	}
	log.WithFields(logrus.Fields{"filled": len(rep.Filled), "dropped": len(rep.Dropped)}).Info("reconciled features")
}

func labelsOf(t *frame.Table) ([]int, error) {
	c, ok := t.Column(LabelColumn)
	if !ok {
		return nil, fmt.Errorf("label %q: %w", LabelColumn, frame.ErrUnknownColumn)
	}
	if c.Kind != frame.Numeric {
		return nil, fmt.Errorf("label %q: %w", LabelColumn, frame.ErrNotNumeric)
	}
	labels := make([]int, len(c.Num))
	for i, v := range c.Num {
		if math.IsNaN(v) || (v != 0 && v != 1) {
			return nil, fmt.Errorf("label %q row %d: %v is not 0 or 1", LabelColumn, i, v)
		}
		labels[i] = int(v)
	}
	return labels, nil
}

func metricsOf(scored []model.Labeled) (map[string]float64, error) {
	labels := make([]int, len(scored))
	scores := make([]float64, len(scored))
	for i, s := range scored {
		labels[i] = s.Label
		scores[i] = s.Score
	}

	auc, err := evaluate.ROCAUC(labels, scores)
	if err != nil {
		return nil, fmt.Errorf("roc auc: %w", err)
	}
	prAUC, err := evaluate.AveragePrecision(labels, scores)
	if err != nil {
		return nil, fmt.Errorf("pr auc: %w", err)
	}
	return map[string]float64{"auc": auc, "pr_auc": prAUC}, nil
}
