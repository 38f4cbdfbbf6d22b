package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = "fraudline.yaml"

// Config represents the top-level fraudline.yaml configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Model    ModelConfig    `yaml:"model" mapstructure:"model"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Features FeaturesConfig `yaml:"features" mapstructure:"features"`
	Split    SplitConfig    `yaml:"split" mapstructure:"split"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the raw input tables.
type DataConfig struct {
	IdentityPath    string `yaml:"identity_path" mapstructure:"identity_path"`
	TransactionPath string `yaml:"transaction_path" mapstructure:"transaction_path"`
	TrainPath       string `yaml:"train_path" mapstructure:"train_path"` // prepared training table
}

// ModelConfig locates the trained model and its feature contract.
type ModelConfig struct {
	ModelPath       string `yaml:"model_path" mapstructure:"model_path"`
	FeatureListPath string `yaml:"feature_list_path,omitempty" mapstructure:"feature_list_path"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	OutputPath      string `yaml:"output_path" mapstructure:"output_path"`
	MetricsDir      string `yaml:"metrics_dir" mapstructure:"metrics_dir"`
	MetricsTextfile string `yaml:"metrics_textfile,omitempty" mapstructure:"metrics_textfile"`
	RunLog          bool   `yaml:"run_log" mapstructure:"run_log"`
}

// FeaturesConfig controls feature engineering.
type FeaturesConfig struct {
	KeepNA       bool `yaml:"keep_na" mapstructure:"keep_na"`
	ExpectedRows int  `yaml:"expected_rows,omitempty" mapstructure:"expected_rows"` // 0 = unchecked
}

// SplitConfig controls the validation split.
type SplitConfig struct {
	TestRatio float64 `yaml:"test_ratio" mapstructure:"test_ratio"`
	Seed      int64   `yaml:"seed" mapstructure:"seed"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
}

// Load reads a fraudline.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			IdentityPath:    "data/identity.csv",
			TransactionPath: "data/transaction.csv",
			TrainPath:       "data/train.csv",
		},
		Model: ModelConfig{
			ModelPath: "data/model.txt",
		},
		Output: OutputConfig{
			OutputPath: "data/submission.csv",
			MetricsDir: "metrics",
			RunLog:     true,
		},
		Features: FeaturesConfig{
			KeepNA: true,
		},
		Split: SplitConfig{
			TestRatio: 0.25,
			Seed:      42,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
