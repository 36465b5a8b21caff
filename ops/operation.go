package ops

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OperationState mirrors the Job state machine one-to-one at the
// user-facing layer (spec.md §4.4): Cold → Running → {Paused ↔
// Running} → {Stopped | Completed}.
type OperationState int

const (
	StateCold OperationState = iota
	StateRunning
	StatePaused
	StateStopped
	StateCompleted
)

func (s OperationState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	default:
		return "cold"
	}
}

// PresentDialogFunc is the host-supplied callback an Operation calls to
// surface a Dialog to the UI. The callback must eventually call
// Resolve/ForceStop on the returned AsyncDialogResponse (usually from a
// different goroutine).
type PresentDialogFunc func(d Dialog) *AsyncDialogResponse

// Operation is the user-facing façade around one Job (spec.md §4.4).
type Operation struct {
	*observableBase

	id  uuid.UUID
	job *Job
	log *logrus.Entry

	mu            sync.Mutex
	presentDialog PresentDialogFunc
	pendingDialog *AsyncDialogResponse
	finished      chan struct{}
	finishedOnce  sync.Once
}

// NewOperation wraps job in an Operation façade that logs through log
// (the standard logrus logger when log is nil).
func NewOperation(job *Job, log *logrus.Entry) *Operation {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	op := &Operation{
		observableBase: newObservableBase(),
		id:             uuid.New(),
		job:            job,
		log:            log,
		finished:       make(chan struct{}),
	}
	job.SetCallbacks(op.handleFinish, op.handlePause, op.handleResume, nil)
	return op
}

// SetPresentDialog installs the dialog-presentation callback.
func (op *Operation) SetPresentDialog(fn PresentDialogFunc) {
	op.mu.Lock()
	op.presentDialog = fn
	op.mu.Unlock()
}

// RequestDialog surfaces d via the installed PresentDialogFunc and
// returns the pending response (or an already-resolved "Stop" response
// if no presenter is installed).
func (op *Operation) RequestDialog(d Dialog) *AsyncDialogResponse {
	op.mu.Lock()
	present := op.presentDialog
	op.mu.Unlock()

	if present == nil {
		r := NewAsyncDialogResponse()
		r.ForceStop()
		return r
	}
	resp := present(d)
	op.mu.Lock()
	op.pendingDialog = resp
	op.mu.Unlock()
	return resp
}

// ID returns the Operation's process-unique identifier, used by Pool and
// the rc-style job registry a host wires on top of this package.
func (op *Operation) ID() uuid.UUID { return op.id }

// Job exposes the underlying Job for job-specific option setting.
func (op *Operation) Job() *Job { return op.job }

// State reports the Operation's current observable state.
func (op *Operation) State() OperationState {
	switch {
	case op.job.IsCompleted():
		return StateCompleted
	case op.job.IsStopped():
		return StateStopped
	case op.job.IsPaused():
		return StatePaused
	case op.job.IsRunning():
		return StateRunning
	default:
		return StateCold
	}
}

// Start transitions Cold → Running, running Perform on a new goroutine.
func (op *Operation) Start() {
	op.log.WithField("title", op.job.Title()).Info("operation starting")
	op.fire(EventStart)
	go op.job.Run()
}

// Pause requests the job pause.
func (op *Operation) Pause() {
	op.job.Pause()
	op.fire(EventPause)
}

// Resume requests the job resume.
func (op *Operation) Resume() {
	op.job.Resume()
	op.fire(EventResume)
}

// Stop requests cancellation, forcing any pending dialog response to
// Stop so the worker thread is never left blocked forever.
func (op *Operation) Stop() {
	op.job.Stop()
	op.mu.Lock()
	pending := op.pendingDialog
	op.mu.Unlock()
	if pending != nil {
		pending.ForceStop()
	}
	op.fire(EventStop)
}

// SetTitle changes the operation's title and fires TitleChange.
func (op *Operation) SetTitle(title string) {
	op.job.SetTitle(title)
	op.fire(EventTitleChange)
}

// Title returns the operation's current title.
func (op *Operation) Title() string { return op.job.Title() }

// Wait blocks until the job finishes or timeout elapses, returning true
// if it finished within the deadline (spec.md §4.4). A negative timeout
// blocks until the finish condition is signalled, with no deadline.
func (op *Operation) Wait(timeout time.Duration) bool {
	if timeout < 0 {
		<-op.finished
		return true
	}
	select {
	case <-op.finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (op *Operation) handleFinish() {
	op.log.WithFields(logrus.Fields{
		"title": op.job.Title(),
		"state": op.State().String(),
	}).Info("operation finished")
	op.fire(EventCompletion)
	op.finishedOnce.Do(func() { close(op.finished) })
}

func (op *Operation) handlePause()  { op.log.Debug("operation paused") }
func (op *Operation) handleResume() { op.log.Debug("operation resumed") }
