package importjob

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/snapguess/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func testConfig() Config {
	return Config{BatchSize: 20, MinQuality: 70, ScreenshotsPerGame: 5}
}

func TestCreate(t *testing.T) {
	store := NewStore(setupTestDB(t))

	j, err := store.Create(testConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, StatePending, j.Status)
	assert.Equal(t, TypeFullImport, j.ImportType)
	assert.Equal(t, 1, j.Progress.CurrentPage)

	got, err := store.Get(j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, 20, got.Config.BatchSize)
	assert.Nil(t, got.Progress.TotalAvailable)
	assert.Nil(t, got.StartedAt)
}

// A second job cannot be created while one is pending, running, or paused,
// and the rejected attempt leaves no row behind.
func TestCreate_SecondActiveRejected(t *testing.T) {
	store := NewStore(setupTestDB(t))

	first, err := store.Create(testConfig())
	require.NoError(t, err)

	_, err = store.Create(testConfig())
	assert.ErrorIs(t, err, ErrActiveJobExists)

	jobs, err := store.List(0)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	// Still rejected while running and while paused.
	_, err = store.Transition(first.ID, StateRunning)
	require.NoError(t, err)
	_, err = store.Create(testConfig())
	assert.ErrorIs(t, err, ErrActiveJobExists)

	_, err = store.Transition(first.ID, StatePaused)
	require.NoError(t, err)
	_, err = store.Create(testConfig())
	assert.ErrorIs(t, err, ErrActiveJobExists)
}

func TestCreate_AllowedAfterTerminal(t *testing.T) {
	store := NewStore(setupTestDB(t))

	j, err := store.Create(testConfig())
	require.NoError(t, err)
	_, err = store.Transition(j.ID, StateRunning)
	require.NoError(t, err)
	_, err = store.Transition(j.ID, StateCompleted)
	require.NoError(t, err)

	_, err = store.Create(testConfig())
	assert.NoError(t, err)
}

func TestGetActive(t *testing.T) {
	store := NewStore(setupTestDB(t))

	j, err := store.GetActive()
	require.NoError(t, err)
	assert.Nil(t, j)

	created, err := store.Create(testConfig())
	require.NoError(t, err)

	j, err = store.GetActive()
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, created.ID, j.ID)
}

func TestGet_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))
	_, err := store.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckpoint(t *testing.T) {
	store := NewStore(setupTestDB(t))
	j, err := store.Create(testConfig())
	require.NoError(t, err)

	total := 200
	batches := 10
	p := Progress{
		TotalAvailable:        &total,
		CurrentPage:           3,
		LastOffset:            40,
		GamesProcessed:        40,
		GamesImported:         30,
		GamesSkipped:          10,
		ScreenshotsDownloaded: 120,
		FailedCount:           2,
		CurrentBatch:          2,
		TotalBatches:          &batches,
	}
	require.NoError(t, store.Checkpoint(j.ID, p))

	got, err := store.Get(j.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got.Progress)
	assert.Equal(t, got.Progress.GamesProcessed,
		got.Progress.GamesImported+got.Progress.GamesSkipped)
}

func TestTransition_Lifecycle(t *testing.T) {
	store := NewStore(setupTestDB(t))
	j, err := store.Create(testConfig())
	require.NoError(t, err)

	running, err := store.Transition(j.ID, StateRunning)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, running.Status)
	require.NotNil(t, running.StartedAt)
	assert.Nil(t, running.ResumedAt)

	paused, err := store.Transition(j.ID, StatePaused)
	require.NoError(t, err)
	assert.Equal(t, StatePaused, paused.Status)
	require.NotNil(t, paused.PausedAt)

	resumed, err := store.Transition(j.ID, StateRunning)
	require.NoError(t, err)
	require.NotNil(t, resumed.ResumedAt)
	assert.Equal(t, running.StartedAt.Unix(), resumed.StartedAt.Unix(), "started_at set exactly once")

	completed, err := store.Transition(j.ID, StateCompleted)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
}

func TestTransition_Invalid(t *testing.T) {
	store := NewStore(setupTestDB(t))
	j, err := store.Create(testConfig())
	require.NoError(t, err)

	// pending cannot pause or complete
	_, err = store.Transition(j.ID, StatePaused)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = store.Transition(j.ID, StateCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = store.Transition(j.ID, StateRunning)
	require.NoError(t, err)
	_, err = store.Transition(j.ID, StateCompleted)
	require.NoError(t, err)

	// terminal states are immutable
	_, err = store.Transition(j.ID, StateRunning)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = store.Transition(j.ID, StateFailed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStateMachine(t *testing.T) {
	assert.True(t, StatePending.CanTransitionTo(StateRunning))
	assert.True(t, StateRunning.CanTransitionTo(StatePaused))
	assert.True(t, StatePaused.CanTransitionTo(StateRunning))
	assert.True(t, StateRunning.CanTransitionTo(StateCompleted))
	assert.True(t, StateRunning.CanTransitionTo(StateFailed))

	assert.True(t, StatePaused.CanTransitionTo(StateCompleted),
		"a job whose final page was counted completes even if a pause won the row")
	assert.False(t, StatePaused.CanTransitionTo(StateFailed))
	assert.False(t, StateCompleted.CanTransitionTo(StateRunning))
	assert.False(t, StateFailed.CanTransitionTo(StateRunning))
	assert.False(t, StatePending.CanTransitionTo(StatePaused))
}
