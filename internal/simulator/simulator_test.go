package simulator

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/precast-yard/internal/precast"
)

var (
	sharedOnce sync.Once
	shared     *Simulator
	sharedErr  error
)

// trainedSimulator returns a simulator trained once per test binary
func trainedSimulator(t *testing.T) *Simulator {
	t.Helper()
	sharedOnce.Do(func() {
		shared, sharedErr = New(DefaultOptions())
		if sharedErr != nil {
			return
		}
		_, sharedErr = shared.Train(context.Background(), DefaultTrainOptions())
	})
	require.NoError(t, sharedErr)
	return shared
}

type countingRecorder struct {
	mu      sync.Mutex
	reports []*TrainingReport
}

func (r *countingRecorder) Record(_ context.Context, report *TrainingReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func (r *countingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

func TestQueriesBeforeTraining(t *testing.T) {
	sim, err := New(DefaultOptions())
	require.NoError(t, err)
	assert.False(t, sim.IsTrained())
	assert.Nil(t, sim.Report())

	sc := precast.DefaultScenario()

	_, err = sim.Evaluate(sc)
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = sim.PredictTime(5_000_000, sc)
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = sim.PredictCost(60, sc)
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = sim.Sensitivity(precast.SignalTemperature, 10, sc)
	assert.ErrorIs(t, err, ErrNotTrained)
	assert.ErrorIs(t, sim.Save(filepath.Join(t.TempDir(), "m.gob")), ErrNotTrained)
}

func TestTrainRejectsZeroSamples(t *testing.T) {
	sim, err := New(DefaultOptions())
	require.NoError(t, err)
	_, err = sim.Train(context.Background(), TrainOptions{Samples: 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEvaluateDefaultScenario(t *testing.T) {
	sim := trainedSimulator(t)
	sc := precast.DefaultScenario()

	results, err := sim.Evaluate(sc)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, m := range precast.Methods() {
		r := results[i]
		assert.Equal(t, m.String(), r.Method)
		assert.Greater(t, r.PredictedDays, 0.0)
		assert.Greater(t, r.PredictedCost, 0.0)

		truth := precast.GroundTruth(sc, m)
		assert.Equal(t, precast.RoundDays(truth.Days), r.GroundTruthDays)
		assert.Equal(t, precast.RoundCost(truth.Cost), r.GroundTruthCost)

		// the fit is good in the middle of the sampled space
		assert.InEpsilon(t, truth.Days, r.PredictedDays, 0.3)
		assert.InEpsilon(t, truth.Cost, r.PredictedCost, 0.3)
	}
}

func TestTrainingReport(t *testing.T) {
	sim := trainedSimulator(t)
	report := sim.Report()
	require.NotNil(t, report)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 4000, report.Samples)
	assert.Equal(t, 12000, report.Rows)
	assert.Equal(t, uint64(42), report.Seed)
	assert.Equal(t, 50.0, report.Alpha)
	assert.Nil(t, report.DaysCV)
	assert.False(t, report.TrainedAt.IsZero())
}

func TestPredictRoundTrip(t *testing.T) {
	sim := trainedSimulator(t)
	sc := precast.DefaultScenario()

	evals, err := sim.Evaluate(sc)
	require.NoError(t, err)

	for i, m := range precast.Methods() {
		t.Run(m.String(), func(t *testing.T) {
			budget := evals[i].PredictedCost

			byBudget, err := sim.PredictTime(budget, sc)
			require.NoError(t, err)
			require.Len(t, byBudget, 3)
			rec := byBudget[i]
			assert.Equal(t, m.String(), rec.Method)
			assert.InEpsilon(t, budget, rec.Cost, 0.02)

			byDays, err := sim.PredictCost(rec.Days, sc)
			require.NoError(t, err)
			back := byDays[i]

			assert.InDelta(t, rec.Days, back.Days, 0.1+1e-9)
			assert.InEpsilon(t, budget, back.Cost, 0.25)

			cx, _ := precast.LookupSignal(precast.SignalComplexity)
			eq, _ := precast.LookupSignal(precast.SignalEquipmentAvailability)
			assert.GreaterOrEqual(t, back.Complexity, cx.Min)
			assert.LessOrEqual(t, back.Complexity, cx.Max)
			assert.GreaterOrEqual(t, back.Equipment, eq.Min)
			assert.LessOrEqual(t, back.Equipment, eq.Max)
		})
	}
}

func TestPredictRejectsNonPositiveTargets(t *testing.T) {
	sim := trainedSimulator(t)
	sc := precast.DefaultScenario()

	_, err := sim.PredictTime(0, sc)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = sim.PredictCost(-5, sc)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	for _, target := range []float64{math.Inf(1), math.NaN()} {
		_, err = sim.PredictTime(target, sc)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = sim.PredictCost(target, sc)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestNonFiniteScenarioDoesNotPanic(t *testing.T) {
	sim := trainedSimulator(t)
	sc := precast.DefaultScenario()
	sc.WaterBudget = math.Inf(1)

	assert.NotPanics(t, func() {
		_, err := sim.Evaluate(sc)
		assert.NoError(t, err)
		_, err = sim.PredictTime(3e6, sc)
		assert.NoError(t, err)
		_, err = sim.Sensitivity(precast.SignalTemperature, 3, sc)
		assert.NoError(t, err)
	})
}

func TestPredictTimeIsCached(t *testing.T) {
	sim := trainedSimulator(t)
	sc := precast.DefaultScenario()

	first, err := sim.PredictTime(6_000_000, sc)
	require.NoError(t, err)
	second, err := sim.PredictTime(6_000_000, sc)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// callers own the returned slice
	second[0].Days = -1
	third, err := sim.PredictTime(6_000_000, sc)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestSensitivityCompleteness(t *testing.T) {
	sim := trainedSimulator(t)
	sc := precast.DefaultScenario()

	for _, name := range precast.SignalNames() {
		t.Run(name, func(t *testing.T) {
			points, err := sim.Sensitivity(name, 10, sc)
			require.NoError(t, err)
			require.Len(t, points, 10)

			sig, _ := precast.LookupSignal(name)
			assert.Equal(t, sig.Min, points[0].Value)
			assert.Equal(t, sig.Max, points[9].Value)

			for i, p := range points {
				if i > 0 {
					assert.Greater(t, p.Value, points[i-1].Value)
				}
				for _, v := range []float64{p.WaterDays, p.WaterCost, p.SteamDays, p.SteamCost, p.ChemicalDays, p.ChemicalCost} {
					assert.Greater(t, v, 0.0)
				}
				if sig.Kind == precast.KindInt {
					assert.Equal(t, math.Round(p.Value), p.Value)
				}
			}
		})
	}
}

func TestSensitivityErrors(t *testing.T) {
	sim := trainedSimulator(t)
	sc := precast.DefaultScenario()

	_, err := sim.Sensitivity("cement_brand", 10, sc)
	assert.ErrorIs(t, err, ErrUnknownSignal)

	_, err = sim.Sensitivity(precast.SignalHumidity, 0, sc)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSaveLoad(t *testing.T) {
	sim := trainedSimulator(t)
	path := filepath.Join(t.TempDir(), "models", "precast.gob")
	require.NoError(t, sim.Save(path))

	loaded, err := New(DefaultOptions())
	require.NoError(t, err)
	report, err := loaded.Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.IsTrained())
	assert.Equal(t, sim.Report().ID, report.ID)

	sc := precast.DefaultScenario()
	want, err := sim.Evaluate(sc)
	require.NoError(t, err)
	got, err := loaded.Evaluate(sc)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingFile(t *testing.T) {
	sim, err := New(DefaultOptions())
	require.NoError(t, err)
	_, err = sim.Load(filepath.Join(t.TempDir(), "absent.gob"))
	assert.Error(t, err)
	assert.False(t, sim.IsTrained())
}

func TestEnsureTrainedRunsOnce(t *testing.T) {
	rec := &countingRecorder{}
	sim, err := New(DefaultOptions(), WithRecorder(rec))
	require.NoError(t, err)

	opts := TrainOptions{Samples: 300, Seed: 1}
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = sim.EnsureTrained(context.Background(), opts)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, sim.IsTrained())
	assert.Equal(t, 1, rec.count())

	require.NoError(t, sim.EnsureTrained(context.Background(), opts))
	assert.Equal(t, 1, rec.count())
}

func TestTrainWithCrossValidation(t *testing.T) {
	rec := &countingRecorder{}
	sim, err := New(DefaultOptions(), WithRecorder(rec))
	require.NoError(t, err)

	report, err := sim.Train(context.Background(), TrainOptions{Samples: 1000, Seed: 7, CrossValidate: true})
	require.NoError(t, err)
	require.NotNil(t, report.DaysCV)
	require.NotNil(t, report.CostCV)
	assert.Len(t, report.DaysCV.Scores, 5)
	assert.Greater(t, report.DaysCV.Mean, 0.5)
	assert.Greater(t, report.CostCV.Mean, 0.5)
	assert.Equal(t, 1, rec.count())

	// retraining replaces the model and is recorded again
	again, err := sim.Train(context.Background(), TrainOptions{Samples: 500, Seed: 8})
	require.NoError(t, err)
	assert.NotEqual(t, report.ID, again.ID)
	assert.Equal(t, again.ID, sim.Report().ID)
	assert.Equal(t, 2, rec.count())
}
