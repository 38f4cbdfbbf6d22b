package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/fraudline-dev/fraudline/internal/config"
	"github.com/fraudline-dev/fraudline/internal/frame"
	"github.com/fraudline-dev/fraudline/internal/logging"
	"github.com/fraudline-dev/fraudline/internal/schema"
	"github.com/fraudline-dev/fraudline/internal/score"
	"github.com/fraudline-dev/fraudline/internal/submission"
	"github.com/fraudline-dev/fraudline/internal/telemetry"
)

const identityCSV = `TransactionID,id_01,DeviceType
2,-5,mobile
3,-10,desktop
`

const transactionCSV = `TransactionID,TransactionAmt,ProductCD,P_emaildomain,R_emaildomain
1,10,W,gmail.com,
2,20,H,yahoo.com,gmail.com
3,30,W,,
`

const trainTransactionCSV = `TransactionID,isFraud,TransactionAmt,ProductCD,P_emaildomain,R_emaildomain
1,0,10,W,gmail.com,
2,1,20,H,yahoo.com,gmail.com
3,0,30,W,,
`

// modelScorer records the feature list it was built with and scores each row
// by its first column.
type modelScorer struct {
	features schema.FeatureList
	seen     *mat.Dense
}

func (m *modelScorer) Features() schema.FeatureList { return m.features }

func (m *modelScorer) PredictProba(x *mat.Dense) ([]float64, error) {
	m.seen = x
	r, _ := x.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = x.At(i, 0) / 100
	}
	return out, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newRunner() *Runner {
	return NewRunner(logging.Discard(), telemetry.New())
}

func testOptions(t *testing.T, transactions string) Options {
	dir := t.TempDir()
	return Options{
		IdentityPath:    writeFile(t, dir, "identity.csv", identityCSV),
		TransactionPath: writeFile(t, dir, "transaction.csv", transactions),
		OutputPath:      filepath.Join(dir, "out.csv"),
		MetricsDir:      filepath.Join(dir, "metrics"),
		KeepNA:          true,
		TestRatio:       0.5,
		Seed:            1,
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Features.ExpectedRows = 506691

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, cfg.Data.IdentityPath, opts.IdentityPath)
	assert.Equal(t, cfg.Model.FeatureListPath, opts.FeatureListPath)
	assert.Equal(t, 506691, opts.ExpectedRows)
	assert.True(t, opts.KeepNA)
	assert.Equal(t, int64(42), opts.Seed)
}

func TestLoadTables(t *testing.T) {
	opts := testOptions(t, transactionCSV)

	identity, transactions, err := newRunner().LoadTables(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"TransactionID", "id_01", "DeviceType_desktop", "DeviceType_mobile", "DeviceType_nan"}, identity.Names())
	assert.False(t, transactions.Has("P_emaildomain"))
	assert.True(t, transactions.Has("P_email_site_gmail"))
	assert.True(t, transactions.Has("ProductCD_nan"))
	assert.Equal(t, []string{"P_email_region_nan", "P_email_site_nan", "R_email_region_nan", "R_email_site_nan"}, transactions.Duplicates())
}

func TestLoadTables_MissingFile(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	opts.IdentityPath = filepath.Join(t.TempDir(), "missing.csv")

	_, _, err := newRunner().LoadTables(context.Background(), opts)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPredict(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	scorer := &modelScorer{features: schema.FeatureList{"TransactionAmt", "id_01", "ProductCD_W", "never_seen"}}

	res, err := newRunner().Predict(context.Background(), opts, scorer)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, []string{"never_seen"}, res.Report.Filled)
	assert.Contains(t, res.Report.Dropped, "DeviceType_mobile")
	assert.NotEmpty(t, res.RunID)

	r, c := scorer.seen.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, 1.0, scorer.seen.At(0, 2), "ProductCD_W for transaction 1")
	assert.Equal(t, 0.0, scorer.seen.At(2, 3), "never_seen is zero-filled")

	f, err := os.Open(opts.OutputPath)
	require.NoError(t, err)
	defer f.Close()
	preds, err := submission.ReadPredictions(f)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	assert.Equal(t, "1", preds[0].TransactionID)
	assert.InDelta(t, 0.1, preds[0].IsFraud, 1e-12)
	assert.Equal(t, "3", preds[2].TransactionID)
	assert.InDelta(t, 0.3, preds[2].IsFraud, 1e-12)
}

func TestPredict_LightGBM(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	model, err := score.LoadLightGBM(filepath.Join("..", "score", "testdata", "model.txt"))
	require.NoError(t, err)

	res, err := newRunner().Predict(context.Background(), opts, model)
	require.NoError(t, err)
	assert.Equal(t, []string{"never_seen"}, res.Report.Filled)

	f, err := os.Open(opts.OutputPath)
	require.NoError(t, err)
	defer f.Close()
	preds, err := submission.ReadPredictions(f)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	want := []float64{0.1192029, 0.8807971, 0.8807971}
	for i, p := range preds {
		assert.Equal(t, fmt.Sprint(i+1), p.TransactionID)
		assert.InDelta(t, want[i], p.IsFraud, 1e-6)
	}
}

func TestPredict_ExpectedRows(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	opts.ExpectedRows = 506691
	scorer := &modelScorer{features: schema.FeatureList{"TransactionAmt"}}

	_, err := newRunner().Predict(context.Background(), opts, scorer)
	assert.ErrorIs(t, err, ErrRowCount)
	_, statErr := os.Stat(opts.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no submission is written on failure")
}

func TestPredict_FeatureListFile(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	opts.FeatureListPath = writeFile(t, t.TempDir(), "features.txt", "TransactionAmt\nid_01\n")

	plain := func(x *mat.Dense) ([]float64, error) {
		r, _ := x.Dims()
		return make([]float64, r), nil
	}
	res, err := newRunner().Predict(context.Background(), opts, score.Func(plain))
	require.NoError(t, err)
	assert.Empty(t, res.Report.Filled)
}

func TestPredict_FeatureListDisagreesWithModel(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	opts.FeatureListPath = writeFile(t, t.TempDir(), "features.txt", "id_01\nTransactionAmt\n")
	scorer := &modelScorer{features: schema.FeatureList{"TransactionAmt", "id_01"}}

	_, err := newRunner().Predict(context.Background(), opts, scorer)
	assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
}

func TestPredict_NoFeatureList(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	_, err := newRunner().Predict(context.Background(), opts, score.Func(func(x *mat.Dense) ([]float64, error) { return nil, nil }))
	assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
}

func TestPredict_ShortScores(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	opts.FeatureListPath = writeFile(t, t.TempDir(), "features.txt", "TransactionAmt\n")

	_, err := newRunner().Predict(context.Background(), opts, score.Func(func(x *mat.Dense) ([]float64, error) {
		return []float64{0.5}, nil
	}))
	assert.ErrorIs(t, err, ErrRowCount)
}

func TestPrepare(t *testing.T) {
	opts := testOptions(t, trainTransactionCSV)
	opts.FeatureListPath = filepath.Join(t.TempDir(), "features.txt")

	res, err := newRunner().Prepare(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows, "inner join keeps transactions with identity rows")

	train, err := frame.ReadCSVFile(opts.OutputPath)
	require.NoError(t, err)
	assert.Empty(t, train.Duplicates())
	assert.Equal(t, "TransactionID", train.Names()[0])
	assert.True(t, train.Has("isFraud"))

	fl, err := schema.LoadFeatureList(opts.FeatureListPath)
	require.NoError(t, err)
	assert.NotContains(t, fl, "TransactionID")
	assert.NotContains(t, fl, "isFraud")
	assert.Equal(t, train.Width()-2, len(fl))
}

func TestWriteFeatureList(t *testing.T) {
	dir := t.TempDir()
	trainPath := writeFile(t, dir, "train.csv", ",TransactionID,isFraud,amt,card1\n0,1,0,5,7\n")
	flPath := filepath.Join(dir, "features.txt")

	fl, err := newRunner().WriteFeatureList(trainPath, flPath)
	require.NoError(t, err)
	assert.Equal(t, schema.FeatureList{"amt", "card1"}, fl)

	got, err := schema.LoadFeatureList(flPath)
	require.NoError(t, err)
	assert.Equal(t, fl, got)
}

func TestWriteFeatureList_NoFeatures(t *testing.T) {
	dir := t.TempDir()
	trainPath := writeFile(t, dir, "train.csv", "TransactionID,isFraud\n1,0\n")

	_, err := newRunner().WriteFeatureList(trainPath, filepath.Join(dir, "features.txt"))
	assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
}

func labeledTrainCSV(rows int) string {
	var b strings.Builder
	b.WriteString("TransactionID,isFraud,amt,extra\n")
	for i := 0; i < rows; i++ {
		label := i % 2
		// Fraud rows always carry the larger amount.
		amt := 10 + i
		if label == 1 {
			amt += 100
		}
		fmt.Fprintf(&b, "%d,%d,%d,1\n", 1000+i, label, amt)
	}
	return b.String()
}

func TestEvaluate(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	opts.TrainPath = writeFile(t, t.TempDir(), "train.csv", labeledTrainCSV(40))
	scorer := &modelScorer{features: schema.FeatureList{"amt", "card1"}}

	res, err := newRunner().Evaluate(context.Background(), opts, scorer)
	require.NoError(t, err)

	assert.Equal(t, 20, res.Rows)
	assert.Equal(t, []string{"card1"}, res.Report.Filled)
	assert.Equal(t, []string{"extra"}, res.Report.Dropped)
	assert.InDelta(t, 1.0, res.Metrics["auc"], 1e-12)
	assert.InDelta(t, 1.0, res.Metrics["pr_auc"], 1e-12)

	data, err := os.ReadFile(filepath.Join(opts.MetricsDir, "auc.metric"))
	require.NoError(t, err)
	assert.Equal(t, " 1.00000", string(data))
	_, err = os.Stat(filepath.Join(opts.MetricsDir, "pr_auc.metric"))
	assert.NoError(t, err)
}

func TestEvaluate_MissingLabel(t *testing.T) {
	opts := testOptions(t, transactionCSV)
	opts.TrainPath = writeFile(t, t.TempDir(), "train.csv", "TransactionID,amt\n1,2\n2,3\n3,4\n4,5\n")
	scorer := &modelScorer{features: schema.FeatureList{"amt"}}

	_, err := newRunner().Evaluate(context.Background(), opts, scorer)
	assert.ErrorIs(t, err, frame.ErrUnknownColumn)
}

func TestReconcileFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "table.csv", "A,B,C\n1,2,3\n4,5,6\n7,8,9\n")
	fl := writeFile(t, dir, "features.txt", "B\nD\nA\n")
	out := filepath.Join(dir, "out.csv")

	res, err := newRunner().ReconcileFile(in, fl, out)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, []string{"D"}, res.Report.Filled)
	assert.Equal(t, []string{"C"}, res.Report.Dropped)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "B,D,A\n2,0,1\n5,0,4\n8,0,7\n", string(data))
}

func TestReconcileFile_EmptyFeatureList(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "table.csv", "A\n1\n")
	fl := writeFile(t, dir, "features.txt", "\n")

	_, err := newRunner().ReconcileFile(in, fl, filepath.Join(dir, "out.csv"))
	assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
}
