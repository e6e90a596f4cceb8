package importer

import "errors"

var (
	// ErrImportActive is returned by Start while another job is pending,
	// running, or paused.
	ErrImportActive = errors.New("another import is already active")

	// ErrNotRunning is returned by Pause when the job is not running.
	ErrNotRunning = errors.New("import is not running")

	// ErrNotPaused is returned by Resume when the job is not paused.
	ErrNotPaused = errors.New("import is not paused")

	// ErrInvalidConfig is returned by Start when a configuration value is
	// out of bounds.
	ErrInvalidConfig = errors.New("invalid import configuration")
)
