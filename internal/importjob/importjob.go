// Package importjob persists the checkpoint state of catalog imports.
package importjob

import "time"

// State tracks the lifecycle of an import job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Active reports whether the state counts against the single-active-job
// invariant.
func (s State) Active() bool {
	return s == StatePending || s == StateRunning || s == StatePaused
}

// Terminal reports whether the state is immutable.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransitionTo reports whether the state machine permits the move.
// pending -> running; running <-> paused; running -> completed | failed.
// paused -> completed is also allowed: a pause request flips the row
// before the loop observes the flag, and a job whose final page was
// already counted finishes rather than suspending on a stale page.
func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StatePending:
		return next == StateRunning || next == StateFailed
	case StateRunning:
		return next == StatePaused || next == StateCompleted || next == StateFailed
	case StatePaused:
		return next == StateRunning || next == StateCompleted
	default:
		return false
	}
}

// TypeFullImport is the only import type currently produced.
const TypeFullImport = "full-import"

// Config is the immutable configuration of a job, fixed at creation.
type Config struct {
	BatchSize          int
	MinQuality         int
	ScreenshotsPerGame int
	TargetGames        int // 0 means exhaust the provider
}

// Progress is the checkpointed counter set. All counters are
// monotonically non-decreasing while the job runs, and
// GamesProcessed == GamesImported + GamesSkipped after every checkpoint.
type Progress struct {
	TotalAvailable        *int // nil until the first page reveals the total
	CurrentPage           int
	LastOffset            int
	GamesProcessed        int
	GamesImported         int
	GamesSkipped          int
	ScreenshotsDownloaded int
	FailedCount           int
	CurrentBatch          int
	TotalBatches          *int // nil until TotalAvailable is known
}

// Job is one import job row: configuration, progress, and lifecycle
// timestamps.
type Job struct {
	ID         string
	ImportType string
	Status     State
	Config     Config
	Progress   Progress

	StartedAt   *time.Time
	PausedAt    *time.Time
	ResumedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}
