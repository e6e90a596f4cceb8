package importjob

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const jobColumns = `id, import_type, status, batch_size, min_quality, screenshots_per_game,
	target_games, total_available, current_page, last_offset, games_processed,
	games_imported, games_skipped, screenshots_downloaded, failed_count,
	current_batch, total_batches, started_at, paused_at, resumed_at, completed_at, created_at`

// Store persists import job checkpoints.
type Store struct {
	db *sql.DB
}

// NewStore creates an import job store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new job in the pending state. The partial unique index
// over active statuses makes the single-active check atomic: a concurrent
// insert loses with a constraint violation, reported as ErrActiveJobExists,
// and no row is created.
func (s *Store) Create(cfg Config) (*Job, error) {
	j := &Job{
		ID:         uuid.NewString(),
		ImportType: TypeFullImport,
		Status:     StatePending,
		Config:     cfg,
		Progress:   Progress{CurrentPage: 1},
		CreatedAt:  time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO import_jobs (id, import_type, status, batch_size, min_quality, screenshots_per_game, target_games, current_page, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.ImportType, j.Status, cfg.BatchSize, cfg.MinQuality,
		cfg.ScreenshotsPerGame, cfg.TargetGames, j.Progress.CurrentPage, j.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrActiveJobExists
		}
		return nil, fmt.Errorf("insert import job: %w", err)
	}
	return j, nil
}

// Get retrieves a job by id.
// Returns ErrNotFound if the job does not exist.
func (s *Store) Get(id string) (*Job, error) {
	return scanJob(s.db.QueryRow(`SELECT `+jobColumns+` FROM import_jobs WHERE id = ?`, id))
}

// GetActive returns the pending, running, or paused job, if any.
// Returns nil, nil when no job is active.
func (s *Store) GetActive() (*Job, error) {
	j, err := scanJob(s.db.QueryRow(`SELECT ` + jobColumns + ` FROM import_jobs
		WHERE status IN ('pending', 'running', 'paused')`))
	if err == ErrNotFound {
		return nil, nil
	}
	return j, err
}

// List returns jobs newest first.
func (s *Store) List(limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list import jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Checkpoint persists a job's full progress counter set in one atomic
// write. Observers never see a partially updated counter row.
func (s *Store) Checkpoint(id string, p Progress) error {
	result, err := s.db.Exec(`
		UPDATE import_jobs SET
			total_available = ?, current_page = ?, last_offset = ?,
			games_processed = ?, games_imported = ?, games_skipped = ?,
			screenshots_downloaded = ?, failed_count = ?,
			current_batch = ?, total_batches = ?
		WHERE id = ?`,
		p.TotalAvailable, p.CurrentPage, p.LastOffset,
		p.GamesProcessed, p.GamesImported, p.GamesSkipped,
		p.ScreenshotsDownloaded, p.FailedCount,
		p.CurrentBatch, p.TotalBatches, id,
	)
	if err != nil {
		return fmt.Errorf("checkpoint import job: %w", err)
	}
	return requireRow(result, id)
}

// Transition moves a job to a new state, recording the lifecycle
// timestamp for the state entered. The state machine is enforced in SQL:
// the update only applies when the current status permits the move.
func (s *Store) Transition(id string, next State) (*Job, error) {
	var tsColumn string
	switch next {
	case StateRunning:
		// First entry sets started_at; re-entry from paused sets resumed_at.
		tsColumn = ""
	case StatePaused:
		tsColumn = "paused_at"
	case StateCompleted, StateFailed:
		tsColumn = "completed_at"
	}

	allowed := allowedPriorStates(next)
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no state may enter %s", ErrInvalidTransition, next)
	}

	now := time.Now()
	set := "status = ?"
	args := []any{next}
	if tsColumn != "" {
		set += ", " + tsColumn + " = ?"
		args = append(args, now)
	}
	if next == StateRunning {
		// started_at exactly once, resumed_at on every pause/resume cycle.
		set += `,
			started_at = COALESCE(started_at, ?),
			resumed_at = CASE WHEN status = 'paused' THEN ? ELSE resumed_at END`
		args = append(args, now, now)
	}

	placeholders := strings.Repeat("?, ", len(allowed))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	query := "UPDATE import_jobs SET " + set + " WHERE id = ? AND status IN (" + placeholders + ")"
	args = append(args, id)
	for _, st := range allowed {
		args = append(args, st)
	}

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("transition import job: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		j, getErr := s.Get(id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: cannot move %s job to %s", ErrInvalidTransition, j.Status, next)
	}

	return s.Get(id)
}

func allowedPriorStates(next State) []State {
	var allowed []State
	for _, st := range []State{StatePending, StateRunning, StatePaused} {
		if st.CanTransitionTo(next) {
			allowed = append(allowed, st)
		}
	}
	return allowed
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("import job %s: %w", id, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: import_jobs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row *sql.Row) (*Job, error) {
	j, err := scanJobRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return j, err
}

func scanJobRow(row rowScanner) (*Job, error) {
	j := &Job{}
	err := row.Scan(
		&j.ID, &j.ImportType, &j.Status,
		&j.Config.BatchSize, &j.Config.MinQuality, &j.Config.ScreenshotsPerGame, &j.Config.TargetGames,
		&j.Progress.TotalAvailable, &j.Progress.CurrentPage, &j.Progress.LastOffset,
		&j.Progress.GamesProcessed, &j.Progress.GamesImported, &j.Progress.GamesSkipped,
		&j.Progress.ScreenshotsDownloaded, &j.Progress.FailedCount,
		&j.Progress.CurrentBatch, &j.Progress.TotalBatches,
		&j.StartedAt, &j.PausedAt, &j.ResumedAt, &j.CompletedAt, &j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return j, nil
}
