package regression

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"sync"
)

// Regressor is anything that can be fitted and queried on a feature matrix
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// PipelineConfig holds pipeline hyperparameters
type PipelineConfig struct {
	Degree int
	Alpha  float64
}

// DefaultPipelineConfig returns the settings the yard models are trained with
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Degree: 2,
		Alpha:  50.0,
	}
}

// Pipeline chains StandardScaler -> PolynomialFeatures -> Ridge and fits the
// ridge on log1p(y). Predictions are expm1 of the linear output clipped at
// zero, so they are never negative.
type Pipeline struct {
	scaler StandardScaler
	poly   PolynomialFeatures
	ridge  Ridge

	inputDim int
	trained  bool
	mu       sync.RWMutex
}

// NewPipeline creates an unfitted pipeline
func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		poly:  PolynomialFeatures{Degree: cfg.Degree},
		ridge: Ridge{Alpha: cfg.Alpha},
	}
}

// Fit trains the pipeline, replacing any previous fit
func (p *Pipeline) Fit(X [][]float64, y []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	scaled, err := p.scaler.FitTransform(X)
	if err != nil {
		return fmt.Errorf("scale features: %w", err)
	}

	target := make([]float64, len(y))
	for i, v := range y {
		target[i] = math.Log1p(v)
	}

	if err := p.ridge.Fit(p.poly.Transform(scaled), target); err != nil {
		return fmt.Errorf("fit ridge: %w", err)
	}

	p.inputDim = len(X[0])
	p.trained = true
	return nil
}

// Predict runs inference on every row of X
func (p *Pipeline) Predict(X [][]float64) ([]float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.trained {
		return nil, ErrNotFitted
	}

	scaled, err := p.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	logPred, err := p.ridge.Predict(p.poly.Transform(scaled))
	if err != nil {
		return nil, err
	}

	for i, v := range logPred {
		logPred[i] = math.Expm1(math.Max(0, v))
	}
	return logPred, nil
}

// PredictOne is Predict for a single feature vector
func (p *Pipeline) PredictOne(x []float64) (float64, error) {
	out, err := p.Predict([][]float64{x})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// IsTrained returns whether the pipeline has been fitted
func (p *Pipeline) IsTrained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trained
}

// GetConfig returns the pipeline configuration
func (p *Pipeline) GetConfig() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"input_dim":    p.inputDim,
		"feature_dim":  p.poly.OutputWidth(p.inputDim),
		"degree":       p.poly.Degree,
		"alpha":        p.ridge.Alpha,
		"trained":      p.trained,
		"weight_count": len(p.ridge.Weights),
	}
}

type pipelineState struct {
	InputDim int
	Degree   int
	Alpha    float64
	Mean     []float64
	Std      []float64
	Weights  []float64
	Trained  bool
}

// Encode writes the fitted state with encoding/gob
func (p *Pipeline) Encode(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return gob.NewEncoder(w).Encode(pipelineState{
		InputDim: p.inputDim,
		Degree:   p.poly.Degree,
		Alpha:    p.ridge.Alpha,
		Mean:     p.scaler.Mean,
		Std:      p.scaler.Std,
		Weights:  p.ridge.Weights,
		Trained:  p.trained,
	})
}

// Decode restores state written by Encode
func (p *Pipeline) Decode(r io.Reader) error {
	var data pipelineState
	if err := gob.NewDecoder(r).Decode(&data); err != nil {
		return err
	}
	if data.Trained && len(data.Weights) != p.poly.OutputWidth(data.InputDim)+1 {
		return fmt.Errorf("%w: %d weights for input width %d", ErrDimension, len(data.Weights), data.InputDim)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.inputDim = data.InputDim
	p.poly = PolynomialFeatures{Degree: data.Degree}
	p.ridge = Ridge{Alpha: data.Alpha, Weights: data.Weights}
	p.scaler = StandardScaler{Mean: data.Mean, Std: data.Std}
	p.trained = data.Trained
	return nil
}
