package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: FRAUDLINE_MODEL_MODEL_PATH
// overrides model.model_path.
const EnvPrefix = "FRAUDLINE"

// FlagKeys maps command-line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"identity":         "data.identity_path",
	"transaction":      "data.transaction_path",
	"train":            "data.train_path",
	"model":            "model.model_path",
	"features":         "model.feature_list_path",
	"output":           "output.output_path",
	"metrics-dir":      "output.metrics_dir",
	"metrics-textfile": "output.metrics_textfile",
	"run-log":          "output.run_log",
	"keep-na":          "features.keep_na",
	"expected-rows":    "features.expected_rows",
	"test-ratio":       "split.test_ratio",
	"seed":             "split.seed",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// Resolve builds the effective configuration. Later sources win:
// defaults, the YAML file at path (skipped when absent), .env files,
// FRAUDLINE_* environment variables, then flags that were set explicitly.
func Resolve(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	// .env.local is loaded first so that it wins; godotenv never overrides.
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, val := range settings(cfg) {
		v.SetDefault(key, val)
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}
	return out, nil
}

// settings flattens cfg into dotted viper keys.
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"data.identity_path":      cfg.Data.IdentityPath,
		"data.transaction_path":   cfg.Data.TransactionPath,
		"data.train_path":         cfg.Data.TrainPath,
		"model.model_path":        cfg.Model.ModelPath,
		"model.feature_list_path": cfg.Model.FeatureListPath,
		"output.output_path":      cfg.Output.OutputPath,
		"output.metrics_dir":      cfg.Output.MetricsDir,
		"output.metrics_textfile": cfg.Output.MetricsTextfile,
		"output.run_log":          cfg.Output.RunLog,
		"features.keep_na":        cfg.Features.KeepNA,
		"features.expected_rows":  cfg.Features.ExpectedRows,
		"split.test_ratio":        cfg.Split.TestRatio,
		"split.seed":              cfg.Split.Seed,
		"log.level":               cfg.Log.Level,
		"log.format":              cfg.Log.Format,
	}
}
