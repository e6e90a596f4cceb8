// Package importer drives resumable catalog imports from the RAWG API
// into the local game catalog.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/vmunix/snapguess/internal/catalog"
	"github.com/vmunix/snapguess/internal/importjob"
	"github.com/vmunix/snapguess/pkg/rawg"
)

//go:generate mockgen -destination=mocks/catalog_api.go -package=mocks github.com/vmunix/snapguess/internal/importer CatalogAPI

// CatalogAPI is the slice of the provider client the orchestrator needs.
type CatalogAPI interface {
	// ListGames fetches one page of candidates in a stable provider-side
	// ordering.
	ListGames(ctx context.Context, page, pageSize, minScore int) (*rawg.Page, error)
	// GetGame fetches the enrichment detail for one candidate.
	GetGame(ctx context.Context, id int64) (*rawg.GameDetail, error)
	// ListScreenshots fetches screenshot references for one candidate.
	ListScreenshots(ctx context.Context, id int64) ([]rawg.Screenshot, error)
}

// AssetFetcher downloads one screenshot asset. False means the asset is
// permanently unavailable after retries; the import carries on without it.
type AssetFetcher interface {
	Download(ctx context.Context, sourceURL, destPath string) bool
}

// Snapshot kinds delivered to the Reporter.
const (
	SnapshotStarted   = "started"
	SnapshotProgress  = "progress"
	SnapshotPaused    = "paused"
	SnapshotResumed   = "resumed"
	SnapshotCompleted = "completed"
	SnapshotFailed    = "failed"
)

// Snapshot is one progress observation of a job.
type Snapshot struct {
	Kind     string
	Status   importjob.State
	Config   importjob.Config
	Counters importjob.Progress
	Message  string
}

// Reporter receives progress snapshots. Implementations must return
// quickly and never fail the import; the orchestrator ignores anything
// that happens inside Publish.
type Reporter interface {
	Publish(ctx context.Context, importID string, s Snapshot)
}

// Config bounds, enforced by Start.
const (
	minBatchSize = 1
	maxBatchSize = 100
	minShotsPG   = 1
	maxShotsPG   = 10
)

// Orchestrator owns the import state machine: at most one job loop runs
// at a time, candidates are processed strictly sequentially, and progress
// becomes durable only at page-boundary checkpoints.
type Orchestrator struct {
	jobs      *importjob.Store
	catalog   *catalog.Store
	api       CatalogAPI
	fetcher   AssetFetcher
	reporter  Reporter
	assetRoot string
	log       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	active *run
}

// New creates an orchestrator. The loop goroutine it spawns lives until
// the job finishes or Close is called.
func New(jobs *importjob.Store, cat *catalog.Store, api CatalogAPI, fetcher AssetFetcher,
	reporter Reporter, assetRoot string, log *slog.Logger) *Orchestrator {

	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		jobs:      jobs,
		catalog:   cat,
		api:       api,
		fetcher:   fetcher,
		reporter:  reporter,
		assetRoot: assetRoot,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close stops any running loop and waits for it to exit.
func (o *Orchestrator) Close() {
	o.cancel()
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()
	if active != nil {
		<-active.done
	}
}

// Start creates a new import job and begins its batch loop asynchronously.
// It fails fast, creating no row, if configuration is out of bounds or
// another job is active.
func (o *Orchestrator) Start(cfg importjob.Config) (*importjob.Job, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	job, err := o.jobs.Create(cfg)
	if err != nil {
		if errors.Is(err, importjob.ErrActiveJobExists) {
			return nil, fmt.Errorf("%w: %w", ErrImportActive, err)
		}
		return nil, fmt.Errorf("create import job: %w", err)
	}

	job, err = o.jobs.Transition(job.ID, importjob.StateRunning)
	if err != nil {
		return nil, fmt.Errorf("start import job: %w", err)
	}

	o.publish(job, SnapshotStarted, "import started")
	o.launch(job)

	o.log.Info("import started", "import_id", job.ID,
		"batch_size", cfg.BatchSize, "min_quality", cfg.MinQuality,
		"screenshots_per_game", cfg.ScreenshotsPerGame)
	return job, nil
}

// Pause asks a running job to suspend at its next batch boundary.
// Returns ErrNotRunning if the job is not currently running.
func (o *Orchestrator) Pause(id string) (*importjob.Job, error) {
	job, err := o.jobs.Transition(id, importjob.StatePaused)
	if err != nil {
		if errors.Is(err, importjob.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %w", ErrNotRunning, err)
		}
		return nil, err
	}

	o.mu.Lock()
	if o.active != nil && o.active.jobID == id {
		o.active.requestPause()
	}
	o.mu.Unlock()

	o.publish(job, SnapshotPaused, "pause requested")
	o.log.Info("import pause requested", "import_id", id)
	return job, nil
}

// Resume restarts a paused job from its checkpointed page and offset.
// No candidate already reflected in the counters is reprocessed.
// Returns ErrNotPaused if the job is not currently paused.
func (o *Orchestrator) Resume(id string) (*importjob.Job, error) {
	o.mu.Lock()
	if o.active != nil {
		o.mu.Unlock()
		return nil, ErrImportActive
	}
	o.mu.Unlock()

	job, err := o.jobs.Get(id)
	if err != nil {
		return nil, err
	}
	if job.Status != importjob.StatePaused {
		return nil, fmt.Errorf("%w: job is %s", ErrNotPaused, job.Status)
	}

	job, err = o.jobs.Transition(id, importjob.StateRunning)
	if err != nil {
		return nil, fmt.Errorf("resume import job: %w", err)
	}

	o.publish(job, SnapshotResumed, "import resumed")
	o.launch(job)

	o.log.Info("import resumed", "import_id", id,
		"page", job.Progress.CurrentPage, "offset", job.Progress.LastOffset)
	return job, nil
}

// GetActive returns the pending, running, or paused job, or nil.
func (o *Orchestrator) GetActive() (*importjob.Job, error) {
	return o.jobs.GetActive()
}

// Get returns a job by id.
func (o *Orchestrator) Get(id string) (*importjob.Job, error) {
	return o.jobs.Get(id)
}

// List returns jobs newest first.
func (o *Orchestrator) List(limit int) ([]*importjob.Job, error) {
	return o.jobs.List(limit)
}

// Recover moves a job stranded in running by a process crash back to
// paused so an operator can resume it. Called once at daemon startup,
// before any new loop exists.
func (o *Orchestrator) Recover() (*importjob.Job, error) {
	job, err := o.jobs.GetActive()
	if err != nil || job == nil {
		return nil, err
	}
	if job.Status != importjob.StateRunning {
		return job, nil
	}

	job, err = o.jobs.Transition(job.ID, importjob.StatePaused)
	if err != nil {
		return nil, fmt.Errorf("recover orphaned import: %w", err)
	}
	o.log.Warn("recovered orphaned import to paused", "import_id", job.ID)
	return job, nil
}

// Wait blocks until the current loop goroutine exits. Test helper and
// shutdown aid; returns immediately when no loop is running.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()
	if active != nil {
		<-active.done
	}
}

func (o *Orchestrator) launch(job *importjob.Job) {
	r := newRun(job.ID)
	o.mu.Lock()
	o.active = r
	o.mu.Unlock()

	go func() {
		defer func() {
			o.mu.Lock()
			if o.active == r {
				o.active = nil
			}
			o.mu.Unlock()
			close(r.done)
		}()
		o.runLoop(o.ctx, r, job)
	}()
}

// runLoop is the batch loop: one iteration per provider page. Progress
// becomes durable only at the end-of-page checkpoint; a crash between
// checkpoints loses at most one page of counters, which the dedup check
// makes harmless on resume.
func (o *Orchestrator) runLoop(ctx context.Context, r *run, job *importjob.Job) {
	cfg := job.Config
	p := job.Progress

	for {
		page, err := o.api.ListGames(ctx, p.CurrentPage, cfg.BatchSize, cfg.MinQuality)
		if err != nil {
			o.fail(job, p, fmt.Errorf("list candidates page %d: %w", p.CurrentPage, err))
			return
		}

		if p.TotalAvailable == nil {
			total := page.Count
			p.TotalAvailable = &total
			batches := (total + cfg.BatchSize - 1) / cfg.BatchSize
			p.TotalBatches = &batches
		}
		p.CurrentBatch++

		for _, cand := range page.Results {
			if err := o.processCandidate(ctx, job, &p, cand, cfg); err != nil {
				// Counters reflect the last fully handled candidate.
				o.fail(job, p, err)
				return
			}
			p.GamesProcessed++
			p.LastOffset++
			o.publishProgress(job.ID, p)
		}

		done := !page.HasNext || len(page.Results) == 0
		if cfg.TargetGames > 0 && p.GamesProcessed >= cfg.TargetGames {
			done = true
		}
		if !done {
			// The checkpointed page is always the next unprocessed one,
			// so a resume never refetches a page already in the counters.
			p.CurrentPage++
		}

		if err := o.jobs.Checkpoint(job.ID, p); err != nil {
			o.fail(job, p, fmt.Errorf("checkpoint: %w", err))
			return
		}

		// Completion wins over a pause that lands while the final page is
		// in flight: the checkpoint above already counted every candidate,
		// and suspending here would leave CurrentPage pointing at a page
		// the counters reflect, so a resume would refetch and recount it.
		if done {
			o.complete(job, p)
			return
		}

		if r.pauseRequested() {
			o.suspend(job, p)
			return
		}
	}
}

// processCandidate handles one candidate to completion: skip, or import
// with screenshots. Only fatal errors return non-nil; per-asset failures
// are counted in p.FailedCount.
func (o *Orchestrator) processCandidate(ctx context.Context, job *importjob.Job,
	p *importjob.Progress, cand rawg.Game, cfg importjob.Config) error {

	slug := cand.Slug
	if slug == "" {
		slug = catalog.Slugify(cand.Name)
	}

	// Dedup against the existing catalog: reruns and resumes are no-ops
	// for games already imported.
	existing, err := o.catalog.FindGame(slug, cand.ID)
	if err != nil {
		return fmt.Errorf("dedup check %q: %w", slug, err)
	}
	if existing != nil {
		p.GamesSkipped++
		o.log.Debug("candidate already in catalog", "slug", slug)
		return nil
	}

	// Quality floor and screenshot availability.
	if cand.Metacritic < cfg.MinQuality || cand.ScreenshotCount == 0 {
		p.GamesSkipped++
		o.log.Debug("candidate rejected", "slug", slug,
			"score", cand.Metacritic, "screenshots", cand.ScreenshotCount)
		return nil
	}

	detail, err := o.api.GetGame(ctx, cand.ID)
	if err != nil {
		return fmt.Errorf("fetch detail for %q: %w", slug, err)
	}

	shots, err := o.api.ListScreenshots(ctx, cand.ID)
	if err != nil {
		return fmt.Errorf("list screenshots for %q: %w", slug, err)
	}
	if len(shots) > cfg.ScreenshotsPerGame {
		shots = shots[:cfg.ScreenshotsPerGame]
	}

	// Download sequentially; a failed asset is dropped, not fatal.
	type downloaded struct {
		shot rawg.Screenshot
		path string
		tier catalog.Difficulty
	}
	var got []downloaded
	for i, shot := range shots {
		dest := filepath.Join(o.assetRoot, slug, fmt.Sprintf("%02d%s", i+1, assetExt(shot.Image)))
		if o.fetcher.Download(ctx, shot.Image, dest) {
			got = append(got, downloaded{shot: shot, path: dest, tier: catalog.TierForIndex(i)})
		} else {
			p.FailedCount++
			o.log.Warn("screenshot download failed", "slug", slug, "url", shot.Image)
		}
	}

	game := &catalog.Game{
		RawgID:       cand.ID,
		Slug:         slug,
		Title:        cand.Name,
		Released:     cand.Released,
		Developer:    detail.Developer,
		Publisher:    detail.Publisher,
		Genres:       cand.Genres,
		Platforms:    cand.Platforms,
		QualityScore: cand.Metacritic,
		CoverURL:     cand.BackgroundImage,
	}

	tx, err := o.catalog.Begin()
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.AddGame(game); err != nil {
		return fmt.Errorf("persist game %q: %w", slug, err)
	}
	for _, d := range got {
		shot := &catalog.Screenshot{
			GameID:     game.ID,
			LocalPath:  d.path,
			SourceURL:  d.shot.Image,
			Difficulty: d.tier,
		}
		if err := tx.AddScreenshot(shot); err != nil {
			return fmt.Errorf("persist screenshot for %q: %w", slug, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}

	p.GamesImported++
	p.ScreenshotsDownloaded += len(got)
	o.log.Info("game imported", "slug", slug, "screenshots", len(got))
	return nil
}

func (o *Orchestrator) suspend(job *importjob.Job, p importjob.Progress) {
	job.Progress = p
	o.publish(job, SnapshotPaused, "import paused at batch boundary")
	o.log.Info("import suspended", "import_id", job.ID,
		"page", p.CurrentPage, "processed", p.GamesProcessed)
}

func (o *Orchestrator) complete(job *importjob.Job, p importjob.Progress) {
	if _, err := o.jobs.Transition(job.ID, importjob.StateCompleted); err != nil {
		o.log.Error("completion transition failed", "import_id", job.ID, "error", err)
		return
	}
	job.Progress = p
	job.Status = importjob.StateCompleted
	o.publish(job, SnapshotCompleted,
		fmt.Sprintf("import complete: %d imported, %d skipped", p.GamesImported, p.GamesSkipped))
	o.log.Info("import complete", "import_id", job.ID,
		"imported", p.GamesImported, "skipped", p.GamesSkipped,
		"screenshots", p.ScreenshotsDownloaded, "failed_assets", p.FailedCount)
}

// fail persists the counters as they stood at the last safe point and
// marks the job failed. Failed jobs are not auto-retried.
func (o *Orchestrator) fail(job *importjob.Job, p importjob.Progress, cause error) {
	// A cancellation from Close is a shutdown, not a provider or
	// persistence failure. The job is parked as paused so a restart can
	// resume it, the same outcome Recover gives a hard crash. Mid-page
	// counters are deliberately not checkpointed: the last page-boundary
	// checkpoint stands, so the resumed loop refetches the interrupted
	// page without double-counting anything.
	if errors.Is(cause, context.Canceled) && o.ctx.Err() != nil {
		if _, err := o.jobs.Transition(job.ID, importjob.StatePaused); err != nil &&
			!errors.Is(err, importjob.ErrInvalidTransition) {
			o.log.Error("shutdown transition failed", "import_id", job.ID, "error", err)
		}
		o.log.Info("import parked for shutdown", "import_id", job.ID)
		return
	}

	if err := o.jobs.Checkpoint(job.ID, p); err != nil {
		o.log.Error("failure checkpoint failed", "import_id", job.ID, "error", err)
	}
	if _, err := o.jobs.Transition(job.ID, importjob.StateFailed); err != nil {
		o.log.Error("failure transition failed", "import_id", job.ID, "error", err)
	}
	job.Progress = p
	job.Status = importjob.StateFailed
	o.publish(job, SnapshotFailed, cause.Error())
	o.log.Error("import failed", "import_id", job.ID, "error", cause)
}

func (o *Orchestrator) publishProgress(importID string, p importjob.Progress) {
	if o.reporter == nil {
		return
	}
	msg := fmt.Sprintf("processed %d candidates (%d imported, %d skipped)",
		p.GamesProcessed, p.GamesImported, p.GamesSkipped)
	if p.TotalAvailable != nil {
		msg = fmt.Sprintf("processed %d of %d candidates (%d imported, %d skipped)",
			p.GamesProcessed, *p.TotalAvailable, p.GamesImported, p.GamesSkipped)
	}
	o.reporter.Publish(o.ctx, importID, Snapshot{
		Kind:     SnapshotProgress,
		Status:   importjob.StateRunning,
		Counters: p,
		Message:  msg,
	})
}

func (o *Orchestrator) publish(job *importjob.Job, kind, msg string) {
	if o.reporter == nil {
		return
	}
	o.reporter.Publish(o.ctx, job.ID, Snapshot{
		Kind:     kind,
		Status:   job.Status,
		Config:   job.Config,
		Counters: job.Progress,
		Message:  msg,
	})
}

func validateConfig(cfg importjob.Config) error {
	if cfg.BatchSize < minBatchSize || cfg.BatchSize > maxBatchSize {
		return fmt.Errorf("%w: batch size %d not in [%d, %d]",
			ErrInvalidConfig, cfg.BatchSize, minBatchSize, maxBatchSize)
	}
	if cfg.ScreenshotsPerGame < minShotsPG || cfg.ScreenshotsPerGame > maxShotsPG {
		return fmt.Errorf("%w: screenshots per game %d not in [%d, %d]",
			ErrInvalidConfig, cfg.ScreenshotsPerGame, minShotsPG, maxShotsPG)
	}
	if cfg.MinQuality < 0 || cfg.MinQuality > 100 {
		return fmt.Errorf("%w: quality threshold %d not in [0, 100]",
			ErrInvalidConfig, cfg.MinQuality)
	}
	if cfg.TargetGames < 0 {
		return fmt.Errorf("%w: target games must be non-negative", ErrInvalidConfig)
	}
	return nil
}

func assetExt(url string) string {
	ext := filepath.Ext(url)
	if ext == "" || len(ext) > 5 {
		return ".jpg"
	}
	return ext
}
