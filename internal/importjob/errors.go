package importjob

import "errors"

var (
	// ErrNotFound indicates the requested job doesn't exist.
	ErrNotFound = errors.New("import job not found")

	// ErrActiveJobExists indicates another job is pending, running, or paused.
	ErrActiveJobExists = errors.New("an import job is already active")

	// ErrInvalidTransition indicates a state change the machine forbids.
	ErrInvalidTransition = errors.New("invalid import state transition")
)
