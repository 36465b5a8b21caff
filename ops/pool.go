package ops

import (
	"sync"

	"github.com/google/uuid"
)

// Kind identifies an operation's job type for the per-kind enqueue
// filter (spec.md §4.5 "a per-type enqueue filter may bypass the queue
// for specific operation kinds").
type Kind int

const (
	KindCopying Kind = iota
	KindDeletion
	KindAttrsChanging
	KindBatchRenaming
	KindCompression
	KindDirectoryCreation
	KindLinkage
)

// EnqueueFilter decides whether an operation of the given kind must go
// through the Pool's concurrency queue at all (original_source's
// PoolEnqueueFilter, supplemented in SPEC_FULL §3.1: some kinds — e.g.
// a single mkdir — are cheap enough to always run immediately).
type EnqueueFilter interface {
	IsQueued(kind Kind) bool
}

// AlwaysQueued queues every kind; the Pool's default when no filter is
// installed.
type AlwaysQueued struct{}

func (AlwaysQueued) IsQueued(Kind) bool { return true }

// entry pairs an Operation with its Kind for pool bookkeeping.
type entry struct {
	op   *Operation
	kind Kind
}

// Pool is the bounded-concurrency scheduler described in spec.md §4.5.
type Pool struct {
	*observableBase

	concurrency int
	filter      EnqueueFilter

	mu      sync.Mutex
	running []*entry
	pending []*entry
	metrics *Metrics
}

// NewPool creates a Pool that runs at most concurrency operations at
// once. filter may be nil (defaults to AlwaysQueued).
func NewPool(concurrency int, filter EnqueueFilter) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if filter == nil {
		filter = AlwaysQueued{}
	}
	return &Pool{
		observableBase: newObservableBase(),
		concurrency:    concurrency,
		filter:         filter,
	}
}

// Enqueue schedules op. If kind is not queue-governed, or there is a
// free running slot, op starts immediately; otherwise it waits in the
// pending FIFO.
func (p *Pool) Enqueue(op *Operation, kind Kind) {
	e := &entry{op: op, kind: kind}

	op.Observe(EventCompletion, func() { p.onFinish(e) })

	p.mu.Lock()
	start := !p.filter.IsQueued(kind) || len(p.running) < p.concurrency
	if start {
		p.running = append(p.running, e)
	} else {
		p.pending = append(p.pending, e)
	}
	p.mu.Unlock()

	if start {
		op.Start()
	}
	p.fire(EventStart)
	p.metrics.observe(p)
}

func (p *Pool) onFinish(e *entry) {
	p.mu.Lock()
	p.running = removeEntry(p.running, e)
	p.pending = removeEntry(p.pending, e)

	var toStart []*entry
	for len(p.running) < p.concurrency && len(p.pending) > 0 {
		next := p.pending[0]
		p.pending = p.pending[1:]
		p.running = append(p.running, next)
		toStart = append(toStart, next)
	}
	p.mu.Unlock()

	for _, next := range toStart {
		next.op.Start()
	}
	p.fire(EventCompletion)
	p.metrics.observe(p)
}

func removeEntry(list []*entry, target *entry) []*entry {
	out := list[:0]
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// RunningCount and PendingCount expose the queue depths for UI/tests.
func (p *Pool) RunningCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.running)
}

func (p *Pool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Find looks up a tracked Operation by ID, the way a host's rc-style job
// registry (rclone's fs/rc/jobs.Job lookup by int ID) resolves a handle
// from an external request into the in-process Operation.
func (p *Pool) Find(id uuid.UUID) (*Operation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.running {
		if e.op.ID() == id {
			return e.op, true
		}
	}
	for _, e := range p.pending {
		if e.op.ID() == id {
			return e.op, true
		}
	}
	return nil, false
}

// StopAndWaitForShutdown stops every running and pending operation and
// blocks until each has reached a terminal state.
func (p *Pool) StopAndWaitForShutdown() {
	p.mu.Lock()
	all := make([]*Operation, 0, len(p.running)+len(p.pending))
	for _, e := range p.running {
		all = append(all, e.op)
	}
	for _, e := range p.pending {
		all = append(all, e.op)
	}
	p.mu.Unlock()

	for _, op := range all {
		op.Stop()
	}
	for _, op := range all {
		if op.State() == StateStopped || op.State() == StateCompleted {
			continue
		}
		op.Wait(-1) // running jobs observe IsStopped and exit promptly
	}
}
