package events

import (
	"context"

	"github.com/vmunix/snapguess/internal/importer"
	"github.com/vmunix/snapguess/internal/importjob"
)

// ImportReporter fans orchestrator snapshots out onto the event bus.
// Publish never returns an error to the caller; a dropped or unpersisted
// event must not abort an import.
type ImportReporter struct {
	bus *Bus
}

// NewImportReporter creates a bus-backed progress reporter.
func NewImportReporter(bus *Bus) *ImportReporter {
	return &ImportReporter{bus: bus}
}

// Publish implements importer.Reporter.
func (r *ImportReporter) Publish(ctx context.Context, importID string, s importer.Snapshot) {
	counters := toCounters(s.Counters)

	var e Event
	switch s.Kind {
	case importer.SnapshotStarted:
		e = ImportStarted{
			BaseEvent:          NewBaseEvent(TypeImportStarted, EntityImport, importID),
			BatchSize:          s.Config.BatchSize,
			MinQuality:         s.Config.MinQuality,
			ScreenshotsPerGame: s.Config.ScreenshotsPerGame,
		}
	case importer.SnapshotPaused:
		e = ImportPaused{
			BaseEvent: NewBaseEvent(TypeImportPaused, EntityImport, importID),
			Counters:  counters,
		}
	case importer.SnapshotResumed:
		e = ImportResumed{
			BaseEvent: NewBaseEvent(TypeImportResumed, EntityImport, importID),
			Counters:  counters,
		}
	case importer.SnapshotCompleted:
		e = ImportCompleted{
			BaseEvent: NewBaseEvent(TypeImportCompleted, EntityImport, importID),
			Counters:  counters,
		}
	case importer.SnapshotFailed:
		e = ImportFailed{
			BaseEvent: NewBaseEvent(TypeImportFailed, EntityImport, importID),
			Counters:  counters,
			Reason:    s.Message,
		}
	default:
		e = ImportProgress{
			BaseEvent: NewBaseEvent(TypeImportProgress, EntityImport, importID),
			Counters:  counters,
			Message:   s.Message,
		}
	}

	_ = r.bus.Publish(ctx, e)
}

func toCounters(p importjob.Progress) ProgressCounters {
	return ProgressCounters{
		TotalAvailable:        p.TotalAvailable,
		CurrentPage:           p.CurrentPage,
		CurrentBatch:          p.CurrentBatch,
		TotalBatches:          p.TotalBatches,
		GamesProcessed:        p.GamesProcessed,
		GamesImported:         p.GamesImported,
		GamesSkipped:          p.GamesSkipped,
		ScreenshotsDownloaded: p.ScreenshotsDownloaded,
		FailedCount:           p.FailedCount,
	}
}
