package events

// Event type constants for import lifecycle events.
const (
	TypeImportStarted   = "import.started"
	TypeImportProgress  = "import.progress"
	TypeImportPaused    = "import.paused"
	TypeImportResumed   = "import.resumed"
	TypeImportCompleted = "import.completed"
	TypeImportFailed    = "import.failed"
)

// EntityImport is the entity type for import job events.
const EntityImport = "import"

// ProgressCounters is the snapshot of import counters attached to every
// progress-bearing event.
type ProgressCounters struct {
	TotalAvailable        *int `json:"total_available,omitempty"`
	CurrentPage           int  `json:"current_page"`
	CurrentBatch          int  `json:"current_batch"`
	TotalBatches          *int `json:"total_batches,omitempty"`
	GamesProcessed        int  `json:"games_processed"`
	GamesImported         int  `json:"games_imported"`
	GamesSkipped          int  `json:"games_skipped"`
	ScreenshotsDownloaded int  `json:"screenshots_downloaded"`
	FailedCount           int  `json:"failed_count"`
}

// ImportStarted is emitted when an import job begins.
type ImportStarted struct {
	BaseEvent
	BatchSize          int `json:"batch_size"`
	MinQuality         int `json:"min_quality"`
	ScreenshotsPerGame int `json:"screenshots_per_game"`
}

// ImportProgress is emitted after each processed candidate.
type ImportProgress struct {
	BaseEvent
	Counters ProgressCounters `json:"counters"`
	Message  string           `json:"message"`
}

// ImportPaused is emitted when a job suspends at a batch boundary.
type ImportPaused struct {
	BaseEvent
	Counters ProgressCounters `json:"counters"`
}

// ImportResumed is emitted when a paused job continues.
type ImportResumed struct {
	BaseEvent
	Counters ProgressCounters `json:"counters"`
}

// ImportCompleted is emitted when a job exhausts the provider or reaches
// its target.
type ImportCompleted struct {
	BaseEvent
	Counters ProgressCounters `json:"counters"`
}

// ImportFailed is emitted when a job aborts on an unrecoverable error.
type ImportFailed struct {
	BaseEvent
	Counters ProgressCounters `json:"counters"`
	Reason   string           `json:"reason"`
}
