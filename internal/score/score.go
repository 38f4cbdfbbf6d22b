// Package score wraps the trained classifier behind a probability interface.
package score

import (
	"fmt"
	"sync"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"gonum.org/v1/gonum/mat"

	"github.com/fraudline-dev/fraudline/internal/schema"
)

// Scorer returns the positive-class probability for each row of x.
type Scorer interface {
	PredictProba(x *mat.Dense) ([]float64, error)
}

// ModelScorer is a Scorer that knows the feature list it was trained on.
type ModelScorer interface {
	Scorer
	Features() schema.FeatureList
}

// Func adapts a plain function to Scorer.
type Func func(x *mat.Dense) ([]float64, error)

// PredictProba calls f.
func (f Func) PredictProba(x *mat.Dense) ([]float64, error) { return f(x) }

// LightGBM scores with a binary LightGBM text model.
type LightGBM struct {
	path      string
	features  schema.FeatureList
	mu        sync.Mutex
	predictor *lightgbm.Predictor
}

// LoadLightGBM reads a LightGBM text model and its recorded feature names.
func LoadLightGBM(path string) (*LightGBM, error) {
	features, err := schema.LoadModelFeatures(path)
	if err != nil {
		return nil, err
	}

	model, err := lightgbm.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	predictor := lightgbm.NewPredictor(model)
	predictor.SetDeterministic(true)

	return &LightGBM{path: path, features: features, predictor: predictor}, nil
}

// Features returns the model's input feature names in training order.
func (m *LightGBM) Features() schema.FeatureList { return m.features }

// PredictProba scores x, whose columns must follow Features.
func (m *LightGBM) PredictProba(x *mat.Dense) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != len(m.features) {
		return nil, fmt.Errorf("scoring %d columns with a %d-feature model: %w", cols, len(m.features), schema.ErrSchemaMismatch)
	}

	m.mu.Lock()
	preds, err := m.predictor.Predict(x)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("predicting with %s: %w", m.path, err)
	}

	out := make([]float64, rows)
	for i := range out {
		out[i] = preds.At(i, 0)
	}
	return out, nil
}
