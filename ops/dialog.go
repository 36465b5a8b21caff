package ops

import (
	"sync"

	"github.com/corefs/engine/vfs"
)

// ButtonSet discriminates which fixed set of buttons a dialog presents;
// concrete jobs pick the set that matches their resolution alphabet
// (spec.md §6, e.g. {Stop,Skip,Retry} vs {Stop,Skip,Overwrite,...}).
type ButtonSet int

const (
	ButtonsStopSkipRetry ButtonSet = iota
	ButtonsStopSkipOverwriteKeepBoth
	ButtonsStopSkipUnlockRetry
	ButtonsStopSkipOverwrite
)

// Dialog is the descriptor an Operation hands to the presentation layer
// when a job needs a user decision (spec.md §4.4).
type Dialog struct {
	Message string
	Err     error
	Path    string
	Host    vfs.Host
	Buttons ButtonSet
}

// AsyncDialogResponse is the handle a worker thread blocks on after
// requesting a dialog; the UI thread calls Resolve once the user
// chooses, and Stop defaults any unresolved response to "Stop" (spec.md
// §7 "or until Stop is externally requested, in which case the response
// defaults to Stop").
type AsyncDialogResponse struct {
	mu       sync.Mutex
	cond     *sync.Cond
	done     bool
	response int
}

// NewAsyncDialogResponse creates a pending response handle.
func NewAsyncDialogResponse() *AsyncDialogResponse {
	r := &AsyncDialogResponse{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Resolve records the user's choice and wakes the waiting worker.
func (r *AsyncDialogResponse) Resolve(response int) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.response = response
	r.done = true
	r.mu.Unlock()
	r.cond.Broadcast()
}

// ForceStop resolves the response to the zero value (every resolution
// enum in this package places Stop at index 0) without waiting for a
// user choice, used when the job's Stop() is called while a dialog is
// outstanding.
func (r *AsyncDialogResponse) ForceStop() {
	r.Resolve(0)
}

// Wait blocks until Resolve or ForceStop is called and returns the
// recorded response.
func (r *AsyncDialogResponse) Wait() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for !r.done {
		r.cond.Wait()
	}
	return r.response
}
