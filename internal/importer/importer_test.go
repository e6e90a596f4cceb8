package importer_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/snapguess/internal/catalog"
	"github.com/vmunix/snapguess/internal/importer"
	"github.com/vmunix/snapguess/internal/importer/mocks"
	"github.com/vmunix/snapguess/internal/importjob"
	"github.com/vmunix/snapguess/pkg/rawg"
)

func twoPages() [][]rawg.Game {
	return [][]rawg.Game{
		{
			candidate(1, "half-life-2", "Half-Life 2", 96, 8),
			candidate(2, "portal", "Portal", 90, 6),
		},
		{
			candidate(3, "stardew-valley", "Stardew Valley", 89, 5),
			candidate(4, "celeste", "Celeste", 92, 4),
		},
	}
}

// batchSize=2, two pages of two candidates, one already in the catalog:
// 4 processed, 1 skipped, 3 imported, completed.
func TestImport_Scenario(t *testing.T) {
	env := setupEnv(t, twoPages())

	require.NoError(t, env.catalog.AddGame(&catalog.Game{
		RawgID: 999, Slug: "portal", Title: "Portal",
	}))

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	env.orch.Wait()

	final, err := env.orch.Get(job.ID)
	require.NoError(t, err)

	assert.Equal(t, importjob.StateCompleted, final.Status)
	assert.Equal(t, 4, final.Progress.GamesProcessed)
	assert.Equal(t, 1, final.Progress.GamesSkipped)
	assert.Equal(t, 3, final.Progress.GamesImported)
	assert.Equal(t, 3*3, final.Progress.ScreenshotsDownloaded, "3 games x screenshotsPerGame")
	assert.NotNil(t, final.CompletedAt)
	require.NotNil(t, final.Progress.TotalAvailable)
	assert.Equal(t, 4, *final.Progress.TotalAvailable)
	require.NotNil(t, final.Progress.TotalBatches)
	assert.Equal(t, 2, *final.Progress.TotalBatches)

	n, err := env.catalog.CountGames()
	require.NoError(t, err)
	assert.Equal(t, 4, n, "3 imported plus 1 pre-existing")
}

func TestImport_QualityFloorAndNoScreenshots(t *testing.T) {
	pages := [][]rawg.Game{{
		candidate(1, "good-game", "Good Game", 95, 5),
		candidate(2, "shovelware", "Shovelware", 30, 5), // below floor
		candidate(3, "no-shots", "No Shots", 90, 0),     // nothing to play with
	}}
	env := setupEnv(t, pages)

	cfg := defaultConfig()
	cfg.BatchSize = 3
	job, err := env.orch.Start(cfg)
	require.NoError(t, err)
	env.orch.Wait()

	final, err := env.orch.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, final.Status)
	assert.Equal(t, 1, final.Progress.GamesImported)
	assert.Equal(t, 2, final.Progress.GamesSkipped)
}

func TestImport_EnrichmentPersisted(t *testing.T) {
	env := setupEnv(t, [][]rawg.Game{{candidate(1, "myst", "Myst", 85, 4)}})

	cfg := defaultConfig()
	cfg.MinQuality = 80
	_, err := env.orch.Start(cfg)
	require.NoError(t, err)
	env.orch.Wait()

	g, err := env.catalog.FindGame("myst", 1)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "Dev Studio", g.Developer)
	assert.Equal(t, "Pub Corp", g.Publisher)

	shots, err := env.catalog.ListScreenshots(g.ID)
	require.NoError(t, err)
	assert.Len(t, shots, 3)
	assert.Equal(t, catalog.DifficultyEasy, shots[0].Difficulty)
}

// A failed asset download is counted, the screenshot is omitted, and the
// game still imports.
func TestImport_AssetFailureIsNotFatal(t *testing.T) {
	env := setupEnv(t, [][]rawg.Game{{candidate(1, "doom", "Doom", 95, 5)}})
	env.fetcher.failURLs["https://media.example/shots/1/0.jpg"] = true

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	env.orch.Wait()

	final, err := env.orch.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, final.Status)
	assert.Equal(t, 1, final.Progress.GamesImported)
	assert.Equal(t, 1, final.Progress.FailedCount)
	assert.Equal(t, 2, final.Progress.ScreenshotsDownloaded)

	g, err := env.catalog.FindGame("doom", 1)
	require.NoError(t, err)
	require.NotNil(t, g)
	shots, err := env.catalog.ListScreenshots(g.ID)
	require.NoError(t, err)
	assert.Len(t, shots, 2)
}

// Start is rejected while a job is active, and the rejection creates no row.
func TestImport_SingleActiveJob(t *testing.T) {
	pages := twoPages()
	env := setupEnv(t, pages)

	gate := make(chan struct{})
	env.provider.gates[1] = gate

	_, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)

	_, err = env.orch.Start(defaultConfig())
	assert.ErrorIs(t, err, importer.ErrImportActive)

	jobs, err := env.jobs.List(0)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	close(gate)
	env.orch.Wait()
}

func TestImport_InvalidConfig(t *testing.T) {
	env := setupEnv(t, twoPages())

	for _, cfg := range []importjob.Config{
		{BatchSize: 0, MinQuality: 70, ScreenshotsPerGame: 3},
		{BatchSize: 500, MinQuality: 70, ScreenshotsPerGame: 3},
		{BatchSize: 20, MinQuality: -1, ScreenshotsPerGame: 3},
		{BatchSize: 20, MinQuality: 101, ScreenshotsPerGame: 3},
		{BatchSize: 20, MinQuality: 70, ScreenshotsPerGame: 0},
		{BatchSize: 20, MinQuality: 70, ScreenshotsPerGame: 99},
	} {
		_, err := env.orch.Start(cfg)
		assert.ErrorIs(t, err, importer.ErrInvalidConfig, "config %+v", cfg)
	}

	jobs, err := env.jobs.List(0)
	require.NoError(t, err)
	assert.Empty(t, jobs, "rejected starts must not create rows")
}

// Pausing at a batch boundary and resuming yields the same final totals
// as an uninterrupted run over the same provider data.
func TestImport_PauseResumeIdempotent(t *testing.T) {
	pages := [][]rawg.Game{
		{candidate(1, "g1", "Game One", 90, 5), candidate(2, "g2", "Game Two", 90, 5)},
		{candidate(3, "g3", "Game Three", 90, 5), candidate(4, "g4", "Game Four", 90, 5)},
		{candidate(5, "g5", "Game Five", 90, 5), candidate(6, "g6", "Game Six", 90, 5)},
	}

	// Uninterrupted baseline.
	baseline := setupEnv(t, pages)
	baseJob, err := baseline.orch.Start(defaultConfig())
	require.NoError(t, err)
	baseline.orch.Wait()
	baseFinal, err := baseline.orch.Get(baseJob.ID)
	require.NoError(t, err)

	// Interrupted run: pause while page 2 is being fetched.
	env := setupEnv(t, pages)
	gate := make(chan struct{})
	env.provider.gates[2] = gate

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)

	paused, err := env.orch.Pause(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StatePaused, paused.Status)

	close(gate)
	env.orch.Wait()

	mid, err := env.orch.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StatePaused, mid.Status)
	assert.NotNil(t, mid.PausedAt)
	assert.Equal(t, mid.Progress.GamesProcessed,
		mid.Progress.GamesImported+mid.Progress.GamesSkipped)

	resumed, err := env.orch.Resume(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateRunning, resumed.Status)
	env.orch.Wait()

	final, err := env.orch.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, final.Status)
	require.NotNil(t, final.ResumedAt)

	assert.Equal(t, baseFinal.Progress.GamesImported, final.Progress.GamesImported)
	assert.Equal(t, baseFinal.Progress.GamesSkipped, final.Progress.GamesSkipped)
	assert.Equal(t, baseFinal.Progress.GamesProcessed, final.Progress.GamesProcessed)
	assert.Equal(t, baseFinal.Progress.ScreenshotsDownloaded, final.Progress.ScreenshotsDownloaded)

	// No page was fetched twice after the resume.
	calls := env.provider.calls()
	seen := map[int]int{}
	for _, p := range calls {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "page %d fetched %d times", p, n)
	}
}

func TestImport_PauseInvalidState(t *testing.T) {
	env := setupEnv(t, twoPages())

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	env.orch.Wait()

	_, err = env.orch.Pause(job.ID)
	assert.ErrorIs(t, err, importer.ErrNotRunning)
}

func TestImport_ResumeInvalidState(t *testing.T) {
	env := setupEnv(t, twoPages())

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	env.orch.Wait()

	_, err = env.orch.Resume(job.ID)
	assert.ErrorIs(t, err, importer.ErrNotPaused)
}

// A second full import over an already-populated catalog imports nothing
// new.
func TestImport_DedupAcrossRuns(t *testing.T) {
	pages := twoPages()

	env := setupEnv(t, pages)
	first, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	env.orch.Wait()

	firstFinal, err := env.orch.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, firstFinal.Progress.GamesImported)

	second, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	env.orch.Wait()

	secondFinal, err := env.orch.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, secondFinal.Status)
	assert.Equal(t, 0, secondFinal.Progress.GamesImported)
	assert.Equal(t, 4, secondFinal.Progress.GamesSkipped)

	n, err := env.catalog.CountGames()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestImport_TargetGames(t *testing.T) {
	pages := [][]rawg.Game{
		{candidate(1, "g1", "Game One", 90, 5), candidate(2, "g2", "Game Two", 90, 5)},
		{candidate(3, "g3", "Game Three", 90, 5), candidate(4, "g4", "Game Four", 90, 5)},
		{candidate(5, "g5", "Game Five", 90, 5), candidate(6, "g6", "Game Six", 90, 5)},
	}
	env := setupEnv(t, pages)

	cfg := defaultConfig()
	cfg.TargetGames = 3
	job, err := env.orch.Start(cfg)
	require.NoError(t, err)
	env.orch.Wait()

	final, err := env.orch.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, final.Status)
	// Target is honored at batch granularity: the page in flight finishes.
	assert.Equal(t, 4, final.Progress.GamesProcessed)
	assert.NotContains(t, env.provider.calls(), 3, "page past the target is never fetched")
}

// Every progress snapshot upholds processed == imported + skipped.
func TestImport_CounterConsistency(t *testing.T) {
	env := setupEnv(t, twoPages())

	_, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	env.orch.Wait()

	var progressSeen int
	for _, s := range env.reporter.all() {
		if s.Kind != importer.SnapshotProgress {
			continue
		}
		progressSeen++
		assert.Equal(t, s.Counters.GamesProcessed,
			s.Counters.GamesImported+s.Counters.GamesSkipped,
			"snapshot %+v", s.Counters)
	}
	assert.Equal(t, 4, progressSeen, "one progress snapshot per candidate")
}

func TestImport_Recover(t *testing.T) {
	env := setupEnv(t, twoPages())

	// Simulate a crash: a job row left in running with no loop attached.
	j, err := env.jobs.Create(defaultConfig())
	require.NoError(t, err)
	_, err = env.jobs.Transition(j.ID, importjob.StateRunning)
	require.NoError(t, err)

	recovered, err := env.orch.Recover()
	require.NoError(t, err)
	require.NotNil(t, recovered)
	assert.Equal(t, importjob.StatePaused, recovered.Status)

	resumed, err := env.orch.Resume(recovered.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateRunning, resumed.Status)
	env.orch.Wait()

	final, err := env.orch.Get(j.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, final.Status)
}

// A provider error after the first page fails the job with the
// last-good counters intact. Uses the generated mock so the exact call
// sequence is asserted.
func TestImport_ProviderErrorFailsJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockCatalogAPI(ctrl)

	db := setupTestDB(t)
	jobs := importjob.NewStore(db)
	cat := catalog.NewStore(db)
	reporter := &recordingReporter{}
	orch := importer.New(jobs, cat, api, newFakeFetcher(), reporter,
		t.TempDir(), testLogger())
	t.Cleanup(orch.Close)

	page1 := []rawg.Game{
		candidate(1, "g1", "Game One", 90, 5),
		candidate(2, "g2", "Game Two", 90, 5),
	}
	api.EXPECT().ListGames(gomock.Any(), 1, 2, 70).
		Return(&rawg.Page{Count: 4, Results: page1, HasNext: true}, nil)
	api.EXPECT().GetGame(gomock.Any(), gomock.Any()).
		Return(&rawg.GameDetail{Developer: "Dev Studio"}, nil).Times(2)
	api.EXPECT().ListScreenshots(gomock.Any(), gomock.Any()).
		Return([]rawg.Screenshot{{ID: 1, Image: "https://media.example/a.jpg"}}, nil).
		Times(2)
	api.EXPECT().ListGames(gomock.Any(), 2, 2, 70).
		Return(nil, errors.New("upstream gone"))

	job, err := orch.Start(defaultConfig())
	require.NoError(t, err)
	orch.Wait()

	final, err := orch.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateFailed, final.Status)
	assert.Equal(t, 2, final.Progress.GamesProcessed)
	assert.Equal(t, 2, final.Progress.GamesImported)
	assert.NotNil(t, final.CompletedAt)

	last := reporter.all()[len(reporter.all())-1]
	assert.Equal(t, importer.SnapshotFailed, last.Kind)
	assert.Contains(t, last.Message, "upstream gone")

	// Failed jobs are terminal; they cannot be resumed.
	_, err = orch.Resume(job.ID)
	assert.ErrorIs(t, err, importer.ErrNotPaused)

	// And they no longer block a fresh job.
	_, err = jobs.Create(defaultConfig())
	assert.NoError(t, err)
}

func TestImport_GetActive(t *testing.T) {
	env := setupEnv(t, twoPages())

	active, err := env.orch.GetActive()
	require.NoError(t, err)
	assert.Nil(t, active)

	gate := make(chan struct{})
	env.provider.gates[1] = gate

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)

	active, err = env.orch.GetActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, job.ID, active.ID)

	close(gate)
	env.orch.Wait()

	active, err = env.orch.GetActive()
	require.NoError(t, err)
	assert.Nil(t, active)
}

// pageFetched reports whether the provider has seen a ListGames call for
// the given page. Used with require.Eventually to park a job mid-fetch.
func pageFetched(p *fakeProvider, page int) func() bool {
	return func() bool {
		for _, got := range p.calls() {
			if got == page {
				return true
			}
		}
		return false
	}
}

// A pause that lands while the final page is in flight loses to
// completion. Every candidate on that page ends up in the counters, so
// suspending would leave the checkpoint pointing at a page the counters
// already reflect and a resume would recount it.
func TestImport_PauseOnFinalPageCompletes(t *testing.T) {
	env := setupEnv(t, twoPages())
	gate := make(chan struct{})
	env.provider.gates[2] = gate

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	require.Eventually(t, pageFetched(env.provider, 2),
		5*time.Second, 5*time.Millisecond, "final page fetch should be in flight")

	paused, err := env.orch.Pause(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StatePaused, paused.Status)

	close(gate)
	env.orch.Wait()

	final, err := env.orch.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, final.Status)
	assert.Equal(t, 4, final.Progress.GamesProcessed)
	assert.Equal(t, 4, final.Progress.GamesImported)
	assert.Equal(t, 0, final.Progress.GamesSkipped)
	assert.NotNil(t, final.CompletedAt)

	// Each page was fetched exactly once; nothing was recounted.
	counts := map[int]int{}
	for _, page := range env.provider.calls() {
		counts[page]++
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1}, counts)

	_, err = env.orch.Resume(job.ID)
	assert.ErrorIs(t, err, importer.ErrNotPaused)
}

// Graceful shutdown interrupts the loop mid-fetch. The job must come out
// paused with the last page-boundary checkpoint intact, not failed, so a
// restarted process can resume it.
func TestImport_CloseParksRunningJobAsPaused(t *testing.T) {
	env := setupEnv(t, twoPages())
	gate := make(chan struct{})
	env.provider.gates[2] = gate

	job, err := env.orch.Start(defaultConfig())
	require.NoError(t, err)
	require.Eventually(t, pageFetched(env.provider, 2),
		5*time.Second, 5*time.Millisecond, "page 2 fetch should be in flight")

	env.orch.Close()

	parked, err := env.jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StatePaused, parked.Status)
	assert.Nil(t, parked.CompletedAt)

	// Page 1 was checkpointed; the interrupted page was never counted.
	assert.Equal(t, 2, parked.Progress.GamesProcessed)
	assert.Equal(t, 2, parked.Progress.GamesImported)
	assert.Equal(t, 2, parked.Progress.CurrentPage)

	// A fresh orchestrator over the same stores finishes the job.
	close(gate)
	orch2 := importer.New(env.jobs, env.catalog, env.provider, env.fetcher,
		env.reporter, t.TempDir(), testLogger())
	t.Cleanup(orch2.Close)

	resumed, err := orch2.Resume(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateRunning, resumed.Status)
	orch2.Wait()

	final, err := orch2.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, importjob.StateCompleted, final.Status)
	assert.Equal(t, 4, final.Progress.GamesProcessed)
	assert.Equal(t, 4, final.Progress.GamesImported)
	assert.Equal(t, 0, final.Progress.GamesSkipped)
}
