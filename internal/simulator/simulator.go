// Package simulator wires the oracle, sampler and regression pipelines into
// the predictive yard simulator: direct evaluation, budget and deadline
// inverse searches, and one-signal sensitivity sweeps.
package simulator

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kartoza/precast-yard/internal/precast"
	"github.com/kartoza/precast-yard/internal/regression"
)

var (
	// ErrNotTrained is returned by every query made before training
	ErrNotTrained = errors.New("simulator: model not trained")
	// ErrUnknownSignal is returned when a sweep names a signal outside the table
	ErrUnknownSignal = errors.New("simulator: unknown signal")
	// ErrInvalidArgument is returned for non-positive targets or point counts
	ErrInvalidArgument = errors.New("simulator: invalid argument")
)

// Options configures a Simulator
type Options struct {
	Pipeline  regression.PipelineConfig
	Grid      Grid
	CacheSize int
	Folds     int
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		Pipeline:  regression.DefaultPipelineConfig(),
		Grid:      DefaultGrid(),
		CacheSize: 256,
		Folds:     5,
	}
}

// TrainOptions controls one training run
type TrainOptions struct {
	Samples       int
	Seed          uint64
	CrossValidate bool
}

// DefaultTrainOptions matches the lazily trained server model
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Samples: 4000, Seed: 42}
}

// TrainingReport describes a completed training run
type TrainingReport struct {
	ID        string               `json:"id"`
	Samples   int                  `json:"samples"`
	Rows      int                  `json:"rows"`
	Seed      uint64               `json:"seed"`
	Alpha     float64              `json:"alpha"`
	Degree    int                  `json:"degree"`
	DaysCV    *regression.CVResult `json:"days_cv,omitempty"`
	CostCV    *regression.CVResult `json:"cost_cv,omitempty"`
	Duration  time.Duration        `json:"-"`
	TrainedAt time.Time            `json:"trained_at"`
}

// Seconds is the training wall time rounded to centiseconds
func (r *TrainingReport) Seconds() float64 {
	return math.Round(r.Duration.Seconds()*100) / 100
}

// Recorder persists training reports
type Recorder interface {
	Record(ctx context.Context, report *TrainingReport) error
}

// Option customises a Simulator at construction
type Option func(*Simulator)

// WithRecorder stores every training report through r
func WithRecorder(r Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// WithLogger replaces the default slog logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// Evaluation compares model predictions with the oracle for one method
type Evaluation struct {
	Method          string          `json:"curing_method"`
	PredictedDays   float64         `json:"predicted_days"`
	PredictedCost   float64         `json:"predicted_cost"`
	GroundTruthDays float64         `json:"groundtruth_days"`
	GroundTruthCost float64         `json:"groundtruth_cost"`
	Outcome         precast.Outcome `json:"-"`
}

// Recommendation is the inverse-search answer for one method
type Recommendation struct {
	Method string `json:"curing_method"`
	Match
}

// SensitivityPoint holds predictions for all methods at one swept value
type SensitivityPoint struct {
	Value        float64 `json:"swept_value"`
	WaterDays    float64 `json:"water_days"`
	WaterCost    float64 `json:"water_cost"`
	SteamDays    float64 `json:"steam_days"`
	SteamCost    float64 `json:"steam_cost"`
	ChemicalDays float64 `json:"chemical_days"`
	ChemicalCost float64 `json:"chemical_cost"`
}

func (p *SensitivityPoint) set(m precast.CuringMethod, days, cost float64) {
	switch m {
	case precast.Water:
		p.WaterDays, p.WaterCost = days, cost
	case precast.Steam:
		p.SteamDays, p.SteamCost = days, cost
	case precast.Chemical:
		p.ChemicalDays, p.ChemicalCost = days, cost
	}
}

type searchKey struct {
	generation uint64
	metric     Metric
	target     float64
	scenario   precast.Scenario
}

// Simulator is the trained predictive model pair plus its query surface.
// Queries share the fitted pipelines read-only; Train swaps them wholesale.
type Simulator struct {
	opts     Options
	recorder Recorder
	log      *slog.Logger

	mu         sync.RWMutex
	days       *regression.Pipeline
	cost       *regression.Pipeline
	report     *TrainingReport
	generation uint64

	trainMu sync.Mutex
	group   singleflight.Group
	cache   *lru.Cache[searchKey, []Recommendation]
}

// New creates an untrained simulator
func New(opts Options, options ...Option) (*Simulator, error) {
	s := &Simulator{
		opts: opts,
		log:  slog.Default(),
	}
	for _, o := range options {
		o(s)
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[searchKey, []Recommendation](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create search cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// IsTrained reports whether both pipelines are fitted
func (s *Simulator) IsTrained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.days != nil && s.cost != nil
}

// Report returns the most recent training report, or nil
func (s *Simulator) Report() *TrainingReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return nil
	}
	r := *s.report
	return &r
}

// Train samples a fresh training set, fits both pipelines and replaces any
// previously trained state. Only one training run proceeds at a time.
func (s *Simulator) Train(ctx context.Context, opts TrainOptions) (*TrainingReport, error) {
	if opts.Samples <= 0 {
		return nil, fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidArgument, opts.Samples)
	}

	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	start := time.Now()
	s.log.Info("Training simulator", "samples", opts.Samples, "seed", opts.Seed, "alpha", s.opts.Pipeline.Alpha)

	ts := precast.Sample(opts.Samples, opts.Seed)

	days := regression.NewPipeline(s.opts.Pipeline)
	if err := days.Fit(ts.X, ts.Days); err != nil {
		return nil, fmt.Errorf("fit days model: %w", err)
	}
	cost := regression.NewPipeline(s.opts.Pipeline)
	if err := cost.Fit(ts.X, ts.Cost); err != nil {
		return nil, fmt.Errorf("fit cost model: %w", err)
	}

	report := &TrainingReport{
		ID:      uuid.New().String(),
		Samples: opts.Samples,
		Rows:    ts.Len(),
		Seed:    opts.Seed,
		Alpha:   s.opts.Pipeline.Alpha,
		Degree:  s.opts.Pipeline.Degree,
	}

	if opts.CrossValidate {
		factory := func() regression.Regressor { return regression.NewPipeline(s.opts.Pipeline) }
		daysCV, err := regression.CrossValidate(factory, ts.X, ts.Days, s.opts.Folds, 0)
		if err != nil {
			return nil, fmt.Errorf("cross-validate days model: %w", err)
		}
		costCV, err := regression.CrossValidate(factory, ts.X, ts.Cost, s.opts.Folds, 0)
		if err != nil {
			return nil, fmt.Errorf("cross-validate cost model: %w", err)
		}
		report.DaysCV, report.CostCV = &daysCV, &costCV
		s.log.Info("Cross-validation complete",
			"folds", s.opts.Folds,
			"days_r2", daysCV.Mean, "days_r2_std", daysCV.Std,
			"cost_r2", costCV.Mean, "cost_r2_std", costCV.Std)
	}

	report.Duration = time.Since(start)
	report.TrainedAt = time.Now().UTC()

	s.install(days, cost, report)
	s.log.Info("Simulator trained", "id", report.ID, "rows", report.Rows, "seconds", report.Seconds())

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, report); err != nil {
			s.log.Warn("Failed to record training run", "id", report.ID, "error", err)
		}
	}

	r := *report
	return &r, nil
}

// EnsureTrained trains with opts unless a model is already loaded.
// Concurrent first callers share a single training run.
func (s *Simulator) EnsureTrained(ctx context.Context, opts TrainOptions) error {
	if s.IsTrained() {
		return nil
	}
	_, err, _ := s.group.Do("train", func() (interface{}, error) {
		if s.IsTrained() {
			return nil, nil
		}
		return s.Train(ctx, opts)
	})
	return err
}

func (s *Simulator) install(days, cost *regression.Pipeline, report *TrainingReport) {
	s.mu.Lock()
	s.days, s.cost, s.report = days, cost, report
	s.generation++
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *Simulator) models() (days, cost *regression.Pipeline, generation uint64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.days == nil || s.cost == nil {
		return nil, nil, 0, ErrNotTrained
	}
	return s.days, s.cost, s.generation, nil
}

// Evaluate predicts days and cost for every method and pairs them with the
// oracle's exact values for the same scenario.
func (s *Simulator) Evaluate(sc precast.Scenario) ([]Evaluation, error) {
	days, cost, _, err := s.models()
	if err != nil {
		return nil, err
	}

	methods := precast.Methods()
	X := make([][]float64, len(methods))
	for i, m := range methods {
		X[i] = sc.Features(m)
	}
	predDays, err := days.Predict(X)
	if err != nil {
		return nil, err
	}
	predCost, err := cost.Predict(X)
	if err != nil {
		return nil, err
	}

	out := make([]Evaluation, len(methods))
	for i, m := range methods {
		truth := precast.GroundTruth(sc, m)
		out[i] = Evaluation{
			Method:          m.String(),
			PredictedDays:   precast.RoundDays(predDays[i]),
			PredictedCost:   precast.RoundCost(predCost[i]),
			GroundTruthDays: precast.RoundDays(truth.Days),
			GroundTruthCost: precast.RoundCost(truth.Cost),
			Outcome:         truth,
		}
	}
	return out, nil
}

// PredictTime finds, per method, the configuration whose predicted cost is
// closest to budget and reports its predicted schedule.
func (s *Simulator) PredictTime(budget float64, sc precast.Scenario) ([]Recommendation, error) {
	if !precast.IsPositiveFinite(budget) {
		return nil, fmt.Errorf("%w: budget must be a finite positive number, got %g", ErrInvalidArgument, budget)
	}
	return s.inverse(ByCost, budget, sc)
}

// PredictCost finds, per method, the configuration whose predicted schedule
// is closest to days and reports its predicted cost.
func (s *Simulator) PredictCost(days float64, sc precast.Scenario) ([]Recommendation, error) {
	if !precast.IsPositiveFinite(days) {
		return nil, fmt.Errorf("%w: days must be a finite positive number, got %g", ErrInvalidArgument, days)
	}
	return s.inverse(ByDays, days, sc)
}

func (s *Simulator) inverse(metric Metric, target float64, sc precast.Scenario) ([]Recommendation, error) {
	days, cost, gen, err := s.models()
	if err != nil {
		return nil, err
	}

	key := searchKey{generation: gen, metric: metric, target: target, scenario: sc}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return append([]Recommendation(nil), cached...), nil
		}
	}

	methods := precast.Methods()
	out := make([]Recommendation, len(methods))

	var g errgroup.Group
	for i, m := range methods {
		g.Go(func() error {
			match, err := Search(days, cost, sc, m, metric, target, s.opts.Grid)
			if err != nil {
				return fmt.Errorf("%s search for %s: %w", metric, m, err)
			}
			out[i] = Recommendation{Method: m.String(), Match: match}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(key, append([]Recommendation(nil), out...))
	}
	return out, nil
}

// Sensitivity sweeps one signal across its declared range at nPoints evenly
// spaced values, holding the rest of sc fixed. Integer signals are rounded.
func (s *Simulator) Sensitivity(signal string, nPoints int, sc precast.Scenario) ([]SensitivityPoint, error) {
	days, cost, _, err := s.models()
	if err != nil {
		return nil, err
	}
	sig, ok := precast.LookupSignal(signal)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, signal)
	}
	if nPoints < 1 {
		return nil, fmt.Errorf("%w: n_points must be positive, got %d", ErrInvalidArgument, nPoints)
	}

	values := linspace(sig.Min, sig.Max, nPoints)
	methods := precast.Methods()
	X := make([][]float64, 0, nPoints*len(methods))
	for i, v := range values {
		if sig.Kind == precast.KindInt {
			v = math.Round(v)
			values[i] = v
		}
		swept, _ := sc.With(signal, v)
		for _, m := range methods {
			X = append(X, swept.Features(m))
		}
	}

	predDays, err := days.Predict(X)
	if err != nil {
		return nil, err
	}
	predCost, err := cost.Predict(X)
	if err != nil {
		return nil, err
	}

	out := make([]SensitivityPoint, nPoints)
	for i, v := range values {
		out[i].Value = v
		for j, m := range methods {
			k := i*len(methods) + j
			out[i].set(m, precast.RoundDays(predDays[k]), precast.RoundCost(predCost[k]))
		}
	}
	return out, nil
}

func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

type modelFile struct {
	Report TrainingReport
	Days   []byte
	Cost   []byte
}

// Save writes the trained pipelines and their report to path
func (s *Simulator) Save(path string) error {
	days, cost, _, err := s.models()
	if err != nil {
		return err
	}

	var daysBuf, costBuf bytes.Buffer
	if err := days.Encode(&daysBuf); err != nil {
		return fmt.Errorf("encode days model: %w", err)
	}
	if err := cost.Encode(&costBuf); err != nil {
		return fmt.Errorf("encode cost model: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(modelFile{
		Report: *s.Report(),
		Days:   daysBuf.Bytes(),
		Cost:   costBuf.Bytes(),
	})
}

// Load restores a model written by Save, replacing any trained state
func (s *Simulator) Load(path string) (*TrainingReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data modelFile
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode model file: %w", err)
	}

	days := regression.NewPipeline(s.opts.Pipeline)
	if err := days.Decode(bytes.NewReader(data.Days)); err != nil {
		return nil, fmt.Errorf("decode days model: %w", err)
	}
	cost := regression.NewPipeline(s.opts.Pipeline)
	if err := cost.Decode(bytes.NewReader(data.Cost)); err != nil {
		return nil, fmt.Errorf("decode cost model: %w", err)
	}
	if !days.IsTrained() || !cost.IsTrained() {
		return nil, fmt.Errorf("model file %s: %w", path, ErrNotTrained)
	}

	report := data.Report
	s.install(days, cost, &report)
	s.log.Info("Loaded simulator model", "path", path, "id", report.ID, "trained_at", report.TrainedAt)

	r := report
	return &r, nil
}
