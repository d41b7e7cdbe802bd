package runs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/precast-yard/internal/regression"
	"github.com/kartoza/precast-yard/internal/simulator"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := &simulator.TrainingReport{
		ID:        "run-1",
		Samples:   4000,
		Rows:      12000,
		Seed:      1 << 63,
		Alpha:     50,
		Degree:    2,
		DaysCV:    &regression.CVResult{Mean: 0.97, Std: 0.01},
		Duration:  1500 * time.Millisecond,
		TrainedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Record(ctx, report))

	run, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T10:00:00Z", run.TrainedAt)
	assert.Equal(t, 12000, run.Rows)
	assert.Equal(t, uint64(1<<63), run.Seed)
	assert.Equal(t, 1.5, run.DurationSec)
	require.NotNil(t, run.DaysR2)
	assert.Equal(t, 0.97, *run.DaysR2)
	assert.Nil(t, run.CostR2)

	// duplicate ids are rejected
	assert.Error(t, store.Record(ctx, report))
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, &simulator.TrainingReport{
			ID:        id,
			Samples:   10,
			TrainedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListEmpty(t *testing.T) {
	store := newTestStore(t)
	runs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestSimulatorRecordsIntoStore(t *testing.T) {
	store := newTestStore(t)
	sim, err := simulator.New(simulator.DefaultOptions(), simulator.WithRecorder(store))
	require.NoError(t, err)

	report, err := sim.Train(context.Background(), simulator.TrainOptions{Samples: 200, Seed: 3})
	require.NoError(t, err)

	run, err := store.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, run.Samples)
	assert.Equal(t, 600, run.Rows)
	assert.Equal(t, uint64(3), run.Seed)
}
