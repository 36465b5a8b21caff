// Package ops implements the generic Job/Operation/Pool scheduler
// (spec.md §4.3-§4.5) and the family of concrete jobs in its
// subpackages (copying, deletion, attrschanging, batchrenaming,
// compression, directorycreation, linkage).
package ops

import (
	"sync"
	"time"

	"github.com/corefs/engine/progress"
	"github.com/corefs/engine/vfs"
)

// ItemStatus is the per-path outcome reported while a Job runs
// (original_source's ItemStateReport, supplemented in SPEC_FULL §3.1).
type ItemStatus int

const (
	ItemProcessed ItemStatus = iota
	ItemSkipped
)

func (s ItemStatus) String() string {
	if s == ItemSkipped {
		return "skipped"
	}
	return "processed"
}

// ItemStateReport is fired from the worker thread for every path a Job
// finishes handling.
type ItemStateReport struct {
	Host   vfs.Host
	Path   string
	Status ItemStatus
}

// Performer is the contract a concrete job implements: the work that
// runs on the dedicated worker thread once Run is called (spec.md
// §4.3 "Contract for subclasses: override Perform()").
type Performer interface {
	Perform(j *Job) error
}

// state is the four-flag lifecycle vector from spec.md §4.3. At most
// one is meaningful as a terminal state once OnFinish has fired.
type state struct {
	running   bool
	paused    bool
	stopped   bool
	completed bool
}

// Job is the unit of work that runs a concrete job's Performer. It owns a
// Statistics, exposes Run/Pause/Resume/Stop, and fires OnFinish/OnPause
// /OnResume plus an item-state report callback.
type Job struct {
	Stats *progress.Statistics

	perform Performer

	mu    sync.Mutex
	cond  *sync.Cond
	st    state
	title string

	onFinish     func()
	onPause      func()
	onResume     func()
	onItemReport func(ItemStateReport)

	runErr error
}

// NewJob wires a Performer into a fresh Job with its Statistics clock
// started at now.
func NewJob(perform Performer, now time.Time, title string) *Job {
	j := &Job{
		Stats:   progress.NewStatistics(now),
		perform: perform,
		title:   title,
	}
	j.cond = sync.NewCond(&j.mu)
	return j
}

// SetCallbacks installs the finish/pause/resume/item-report callbacks.
// Safe to call before or after the job finishes; callback storage is
// swapped under the same lock the finish-fire uses (spec.md §4.3
// "mutation after finish is allowed but must be serialised with the
// finish-fire").
func (j *Job) SetCallbacks(onFinish, onPause, onResume func(), onItemReport func(ItemStateReport)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.onFinish = onFinish
	j.onPause = onPause
	j.onResume = onResume
	j.onItemReport = onItemReport
}

// Title returns the job's current display title.
func (j *Job) Title() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.title
}

// SetTitle changes the display title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	j.title = title
	j.mu.Unlock()
}

// ReportItem fires the item-state-report callback, if any. Called from
// the worker thread as each path finishes (spec.md §4.3).
func (j *Job) ReportItem(host vfs.Host, path string, status ItemStatus) {
	j.mu.Lock()
	cb := j.onItemReport
	j.mu.Unlock()
	if cb != nil {
		cb(ItemStateReport{Host: host, Path: path, Status: status})
	}
}

// Run transitions Cold → Running and invokes Perform synchronously.
// Callers that want background execution should call Run from a
// goroutine (the Pool does this).
func (j *Job) Run() {
	j.mu.Lock()
	j.st.running = true
	j.mu.Unlock()

	err := j.perform.Perform(j)

	j.mu.Lock()
	j.runErr = err
	stopped := j.st.stopped
	j.st.running = false
	if !stopped {
		j.st.completed = true
	}
	finish := j.onFinish
	j.mu.Unlock()

	if finish != nil {
		finish()
	}
}

// Pause requests the worker block at its next BlockIfPaused checkpoint.
func (j *Job) Pause() {
	j.mu.Lock()
	if j.st.stopped || j.st.completed {
		j.mu.Unlock()
		return
	}
	j.st.paused = true
	cb := j.onPause
	j.mu.Unlock()
	j.Stats.PauseAdd(time.Now())
	if cb != nil {
		cb()
	}
}

// Resume releases a paused worker.
func (j *Job) Resume() {
	j.mu.Lock()
	if !j.st.paused {
		j.mu.Unlock()
		return
	}
	j.st.paused = false
	cb := j.onResume
	j.mu.Unlock()
	j.Stats.ResumeAdd(time.Now())
	j.cond.Broadcast()
	if cb != nil {
		cb()
	}
}

// Stop requests cancellation. Once observed by BlockIfPaused/IsStopped,
// no further filesystem-mutating call may be issued (spec.md §8).
func (j *Job) Stop() {
	j.mu.Lock()
	j.st.stopped = true
	j.st.paused = false
	j.mu.Unlock()
	j.cond.Broadcast()
}

// BlockIfPaused waits on the condition variable while paused, per
// spec.md §4.3. Concrete jobs call this between atomic steps.
func (j *Job) BlockIfPaused() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for j.st.paused && !j.st.stopped {
		j.cond.Wait()
	}
}

func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.st.running
}

func (j *Job) IsPaused() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.st.paused
}

func (j *Job) IsStopped() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.st.stopped
}

func (j *Job) IsCompleted() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.st.completed
}

// Err returns the error Perform returned, if any, once the job has
// finished.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runErr
}
