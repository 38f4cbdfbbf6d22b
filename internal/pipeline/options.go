package pipeline

import (
	"github.com/fraudline-dev/fraudline/internal/config"
)

const (
	// IDColumn joins identity and transaction rows and keys the submission.
	IDColumn = "TransactionID"
	// LabelColumn holds the fraud outcome in training data.
	LabelColumn = "isFraud"
)

// Options carries every path and setting a run needs. Nothing is read from
// process arguments or the environment once Options is built.
type Options struct {
	IdentityPath    string
	TransactionPath string
	TrainPath       string
	ModelPath       string
	FeatureListPath string
	OutputPath      string
	MetricsDir      string

	KeepNA       bool
	ExpectedRows int // 0 disables the row-count check
	TestRatio    float64
	Seed         int64
}

// OptionsFromConfig maps a resolved configuration onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		IdentityPath:    cfg.Data.IdentityPath,
		TransactionPath: cfg.Data.TransactionPath,
		TrainPath:       cfg.Data.TrainPath,
		ModelPath:       cfg.Model.ModelPath,
		FeatureListPath: cfg.Model.FeatureListPath,
		OutputPath:      cfg.Output.OutputPath,
		MetricsDir:      cfg.Output.MetricsDir,
		KeepNA:          cfg.Features.KeepNA,
		ExpectedRows:    cfg.Features.ExpectedRows,
		TestRatio:       cfg.Split.TestRatio,
		Seed:            cfg.Split.Seed,
	}
}
