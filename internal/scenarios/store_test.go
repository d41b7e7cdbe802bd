package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/precast-yard/internal/precast"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func ptr(v float64) *float64 { return &v }

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	sc := precast.DefaultScenario()
	sc.Temperature = 38
	created, err := store.Create(&Saved{Title: "Summer pour", Scenario: sc, Budget: ptr(4.5e6)})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summer pour", got.Title)
	assert.Equal(t, sc, got.Scenario)
	require.NotNil(t, got.Budget)
	assert.Equal(t, 4.5e6, *got.Budget)
	assert.Nil(t, got.Days)
}

func TestCreateRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	sc := precast.DefaultScenario()
	sc.Humidity = 5
	_, err := store.Create(&Saved{Title: " ", Scenario: sc, Days: ptr(-1)})

	var ve *precast.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := store.Create(&Saved{Title: title, Scenario: precast.DefaultScenario()})
		require.NoError(t, err)
	}
	// stray files are skipped
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "broken.json"), []byte("{"), 0644))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)
	created, err := store.Create(&Saved{Title: "Yard A", Description: "east", Scenario: precast.DefaultScenario()})
	require.NoError(t, err)

	sc := created.Scenario
	sc.NumElements = 120
	updated, err := store.Update(created.ID, &Saved{Scenario: sc, Days: ptr(30)})
	require.NoError(t, err)
	assert.Equal(t, "Yard A", updated.Title, "empty title keeps the stored one")
	assert.Equal(t, "east", updated.Description)
	assert.Equal(t, 120, updated.Scenario.NumElements)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.Days)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.Scenario.NumElements)

	sc.ConcreteVolume = 0
	_, err = store.Update(created.ID, &Saved{Scenario: sc})
	var ve *precast.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	created, err := store.Create(&Saved{Title: "temp", Scenario: precast.DefaultScenario()})
	require.NoError(t, err)

	require.NoError(t, store.Delete(created.ID))
	_, err = store.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(created.ID), ErrNotFound)
}

func TestIDsCannotEscapeStore(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"../runs", "..%2Fsecret", "", "not-a-uuid"} {
		_, err := store.Get(id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		assert.ErrorIs(t, store.Delete(id), ErrNotFound, id)
	}
}
