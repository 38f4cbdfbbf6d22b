package schema

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fraudline-dev/fraudline/internal/frame"
)

// FeatureList is the ordered set of column names a trained classifier
// expects, fixed at training time.
type FeatureList []string

// Validate checks that the list is non-empty and free of duplicates.
func (fl FeatureList) Validate() error {
	if len(fl) == 0 {
		return fmt.Errorf("empty feature list: %w", ErrSchemaMismatch)
	}
	seen := make(map[string]bool, len(fl))
	for _, name := range fl {
		if seen[name] {
			return fmt.Errorf("feature %q listed twice: %w", name, ErrSchemaMismatch)
		}
		seen[name] = true
	}
	return nil
}

// Index maps each feature name to its position.
func (fl FeatureList) Index() map[string]int {
	idx := make(map[string]int, len(fl))
	for i, name := range fl {
		idx[name] = i
	}
	return idx
}

// ReadFeatureList reads one feature name per line. Blank lines are skipped.
func ReadFeatureList(r io.Reader) (FeatureList, error) {
	var fl FeatureList
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		name := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(name) == "" {
			continue
		}
		fl = append(fl, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading feature list: %w", err)
	}
	return fl, nil
}

// WriteFeatureList writes one feature name per line.
func WriteFeatureList(w io.Writer, fl FeatureList) error {
	bw := bufio.NewWriter(w)
	for _, name := range fl {
		if _, err := bw.WriteString(name + "\n"); err != nil {
			return fmt.Errorf("writing feature list: %w", err)
		}
	}
	return bw.Flush()
}

// LoadFeatureList reads a feature list file from disk.
func LoadFeatureList(path string) (FeatureList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feature list: %w", err)
	}
	defer f.Close()

	fl, err := ReadFeatureList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fl, nil
}

// SaveFeatureList writes a feature list file to disk.
func SaveFeatureList(path string, fl FeatureList) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating feature list: %w", err)
	}
	if err := WriteFeatureList(f, fl); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FeatureName returns name as a LightGBM model records it: spaces become
// underscores.
func FeatureName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// FromTable derives the feature list a model trained on t would expect: every
// column name in order, minus the excluded id and label columns.
func FromTable(t *frame.Table, exclude ...string) FeatureList {
	return FeatureList(t.Drop(exclude...).Names())
}

// modelFeaturesKey prefixes the feature-name line of a LightGBM text model.
const modelFeaturesKey = "feature_names="

// ReadModelFeatures returns the input feature names recorded in a LightGBM
// text model.
func ReadModelFeatures(r io.Reader) (FeatureList, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, modelFeaturesKey) {
			continue
		}
		return FeatureList(strings.Fields(strings.TrimPrefix(line, modelFeaturesKey))), nil
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	return nil, fmt.Errorf("model has no %q line: %w", strings.TrimSuffix(modelFeaturesKey, "="), ErrSchemaMismatch)
}

// LoadModelFeatures reads the feature names from a LightGBM model file.
func LoadModelFeatures(path string) (FeatureList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()

	fl, err := ReadModelFeatures(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fl, nil
}
