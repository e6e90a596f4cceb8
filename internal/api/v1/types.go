package v1

import (
	"time"

	"github.com/vmunix/snapguess/internal/importjob"
)

// jobResponse is the API representation of an import job.
type jobResponse struct {
	ID                    string     `json:"id"`
	Status                string     `json:"status"`
	BatchSize             int        `json:"batch_size"`
	MinQuality            int        `json:"min_quality"`
	ScreenshotsPerGame    int        `json:"screenshots_per_game"`
	TargetGames           int        `json:"target_games,omitempty"`
	TotalAvailable        *int       `json:"total_available,omitempty"`
	CurrentPage           int        `json:"current_page"`
	CurrentBatch          int        `json:"current_batch"`
	TotalBatches          *int       `json:"total_batches,omitempty"`
	GamesProcessed        int        `json:"games_processed"`
	GamesImported         int        `json:"games_imported"`
	GamesSkipped          int        `json:"games_skipped"`
	ScreenshotsDownloaded int        `json:"screenshots_downloaded"`
	FailedCount           int        `json:"failed_count"`
	CreatedAt             time.Time  `json:"created_at"`
	StartedAt             *time.Time `json:"started_at,omitempty"`
	PausedAt              *time.Time `json:"paused_at,omitempty"`
	ResumedAt             *time.Time `json:"resumed_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
}

func jobToResponse(j *importjob.Job) jobResponse {
	return jobResponse{
		ID:                    j.ID,
		Status:                string(j.Status),
		BatchSize:             j.Config.BatchSize,
		MinQuality:            j.Config.MinQuality,
		ScreenshotsPerGame:    j.Config.ScreenshotsPerGame,
		TargetGames:           j.Config.TargetGames,
		TotalAvailable:        j.Progress.TotalAvailable,
		CurrentPage:           j.Progress.CurrentPage,
		CurrentBatch:          j.Progress.CurrentBatch,
		TotalBatches:          j.Progress.TotalBatches,
		GamesProcessed:        j.Progress.GamesProcessed,
		GamesImported:         j.Progress.GamesImported,
		GamesSkipped:          j.Progress.GamesSkipped,
		ScreenshotsDownloaded: j.Progress.ScreenshotsDownloaded,
		FailedCount:           j.Progress.FailedCount,
		CreatedAt:             j.CreatedAt,
		StartedAt:             j.StartedAt,
		PausedAt:              j.PausedAt,
		ResumedAt:             j.ResumedAt,
		CompletedAt:           j.CompletedAt,
	}
}

// startImportRequest carries optional overrides for the configured
// import defaults. Zero values fall back to the defaults.
type startImportRequest struct {
	BatchSize          int `json:"batch_size"`
	MinQuality         int `json:"min_quality"`
	ScreenshotsPerGame int `json:"screenshots_per_game"`
	TargetGames        int `json:"target_games"`
}

type listJobsResponse struct {
	Items []jobResponse `json:"items"`
	Total int           `json:"total"`
}

// gameResponse is the API representation of a catalog game.
type gameResponse struct {
	ID           int64    `json:"id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Released     string   `json:"released,omitempty"`
	Developer    string   `json:"developer,omitempty"`
	Publisher    string   `json:"publisher,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	QualityScore int      `json:"quality_score"`
	Screenshots  int      `json:"screenshots,omitempty"`
}

type listGamesResponse struct {
	Items  []gameResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type screenshotResponse struct {
	ID         int64  `json:"id"`
	GameID     int64  `json:"game_id"`
	LocalPath  string `json:"local_path"`
	SourceURL  string `json:"source_url"`
	Difficulty string `json:"difficulty"`
}

type matchResponse struct {
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// EventResponse is the API representation of a logged event.
type EventResponse struct {
	ID         int64  `json:"id"`
	EventType  string `json:"event_type"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	OccurredAt string `json:"occurred_at"`
}

type listEventsResponse struct {
	Items  []EventResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
