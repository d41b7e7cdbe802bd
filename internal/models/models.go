package models

import (
	"errors"
	"fmt"

	"github.com/kartoza/precast-yard/internal/precast"
	"github.com/kartoza/precast-yard/internal/scenarios"
	"github.com/kartoza/precast-yard/internal/simulator"
)

// Sensitivity sweep point bounds for API callers
const (
	DefaultSensitivityPoints = 10
	MinSensitivityPoints     = 3
	MaxSensitivityPoints     = 50
)

// ScenarioRequest carries the ten scenario signals. Fields missing from the
// JSON body keep their default-scenario values.
type ScenarioRequest struct {
	precast.Scenario
}

// NewScenarioRequest returns a request pre-filled with the default scenario
func NewScenarioRequest() *ScenarioRequest {
	return &ScenarioRequest{Scenario: precast.DefaultScenario()}
}

// Validate checks every signal against its declared range
func (r *ScenarioRequest) Validate() error {
	return r.Scenario.Validate()
}

// PredictTimeRequest asks for schedules that fit a budget
type PredictTimeRequest struct {
	precast.Scenario
	Budget *float64 `json:"budget"`
}

// NewPredictTimeRequest returns a request pre-filled with the default scenario
func NewPredictTimeRequest() *PredictTimeRequest {
	return &PredictTimeRequest{Scenario: precast.DefaultScenario()}
}

// Validate requires a positive budget and an in-range scenario
func (r *PredictTimeRequest) Validate() error {
	return validateWithTarget(r.Scenario, "budget", r.Budget)
}

// PredictCostRequest asks for costs that meet a deadline
type PredictCostRequest struct {
	precast.Scenario
	Days *float64 `json:"days"`
}

// NewPredictCostRequest returns a request pre-filled with the default scenario
func NewPredictCostRequest() *PredictCostRequest {
	return &PredictCostRequest{Scenario: precast.DefaultScenario()}
}

// Validate requires positive days and an in-range scenario
func (r *PredictCostRequest) Validate() error {
	return validateWithTarget(r.Scenario, "days", r.Days)
}

// SensitivityRequest sweeps one signal with the rest held at the scenario
type SensitivityRequest struct {
	precast.Scenario
	NPoints int `json:"n_points"`
}

// NewSensitivityRequest returns a request with default scenario and points
func NewSensitivityRequest() *SensitivityRequest {
	return &SensitivityRequest{
		Scenario: precast.DefaultScenario(),
		NPoints:  DefaultSensitivityPoints,
	}
}

// Validate checks the point count and scenario ranges
func (r *SensitivityRequest) Validate() error {
	fields := invalidFields(r.Scenario.Validate())
	if r.NPoints < MinSensitivityPoints || r.NPoints > MaxSensitivityPoints {
		fields = append(fields, fmt.Sprintf("n_points must be in [%d, %d], got %d",
			MinSensitivityPoints, MaxSensitivityPoints, r.NPoints))
	}
	if len(fields) > 0 {
		return &precast.ValidationError{Fields: fields}
	}
	return nil
}

func validateWithTarget(s precast.Scenario, name string, target *float64) error {
	fields := invalidFields(s.Validate())
	switch {
	case target == nil:
		fields = append(fields, name+" is required")
	case !precast.IsPositiveFinite(*target):
		fields = append(fields, fmt.Sprintf("%s must be a finite number > 0, got %g", name, *target))
	}
	if len(fields) > 0 {
		return &precast.ValidationError{Fields: fields}
	}
	return nil
}

func invalidFields(err error) []string {
	var ve *precast.ValidationError
	if errors.As(err, &ve) {
		return append([]string(nil), ve.Fields...)
	}
	if err != nil {
		return []string{err.Error()}
	}
	return nil
}

// TrainRequest triggers an explicit retrain; unset fields use the server config
type TrainRequest struct {
	Samples       *int    `json:"samples"`
	Seed          *uint64 `json:"seed"`
	CrossValidate *bool   `json:"cross_validate"`
}

// Apply overlays the request on base training options
func (r *TrainRequest) Apply(base simulator.TrainOptions) simulator.TrainOptions {
	if r.Samples != nil {
		base.Samples = *r.Samples
	}
	if r.Seed != nil {
		base.Seed = *r.Seed
	}
	if r.CrossValidate != nil {
		base.CrossValidate = *r.CrossValidate
	}
	return base
}

// Validate bounds the sample count
func (r *TrainRequest) Validate() error {
	if r.Samples != nil && (*r.Samples < 10 || *r.Samples > 100000) {
		return &precast.ValidationError{Fields: []string{
			fmt.Sprintf("samples must be in [10, 100000], got %d", *r.Samples),
		}}
	}
	return nil
}

// HealthResponse reports model readiness
type HealthResponse struct {
	Status              string  `json:"status"`
	ModelTrained        bool    `json:"model_trained"`
	TrainingTimeSeconds float64 `json:"training_time_seconds"`
}

// SignalsResponse lists the input signals and curing method labels
type SignalsResponse struct {
	Signals       []precast.Signal  `json:"signals"`
	CuringMethods map[string]string `json:"curing_methods"`
}

// EvaluateResponse pairs predictions with ground truth for every method
type EvaluateResponse struct {
	Results  []simulator.Evaluation `json:"results"`
	Scenario precast.Scenario       `json:"scenario"`
}

// PredictTimeResponse answers a budget query
type PredictTimeResponse struct {
	InputBudget float64                    `json:"input_budget"`
	Results     []simulator.Recommendation `json:"results"`
	Scenario    precast.Scenario           `json:"scenario"`
}

// PredictCostResponse answers a deadline query
type PredictCostResponse struct {
	InputDays float64                    `json:"input_days"`
	Results   []simulator.Recommendation `json:"results"`
	Scenario  precast.Scenario           `json:"scenario"`
}

// SensitivityResponse holds a one-signal sweep
type SensitivityResponse struct {
	Signal   string                       `json:"signal"`
	Points   []simulator.SensitivityPoint `json:"points"`
	Scenario precast.Scenario             `json:"scenario"`
}

// TrainResponse describes a completed training run
type TrainResponse struct {
	*simulator.TrainingReport
	TrainingTimeSeconds float64 `json:"training_time_seconds"`
}

// SavedEvaluationResponse answers every query a saved scenario has targets for
type SavedEvaluationResponse struct {
	Saved       *scenarios.Saved           `json:"saved"`
	Evaluation  []simulator.Evaluation     `json:"evaluation"`
	PredictTime []simulator.Recommendation `json:"predict_time,omitempty"`
	PredictCost []simulator.Recommendation `json:"predict_cost,omitempty"`
}
