package importer

import "sync/atomic"

// run is the in-process handle for one executing batch loop.
type run struct {
	jobID string
	pause atomic.Bool   // checked at batch boundaries only
	done  chan struct{} // closed when the loop goroutine exits
}

func newRun(jobID string) *run {
	return &run{
		jobID: jobID,
		done:  make(chan struct{}),
	}
}

// requestPause asks the loop to suspend at its next safe checkpoint.
// No mid-candidate cancellation exists; a partially imported game is
// never observable.
func (r *run) requestPause() {
	r.pause.Store(true)
}

func (r *run) pauseRequested() bool {
	return r.pause.Load()
}
