package ops

import "sync"

// Event names the six notifications an Operation's observers subscribe
// to (spec.md §4.4).
type Event int

const (
	EventStart Event = iota
	EventPause
	EventResume
	EventStop
	EventCompletion
	EventTitleChange
)

// Ticket is returned from Observe; dropping it (calling Unsubscribe)
// detaches the observer.
type Ticket struct {
	unsubscribe func()
}

// Unsubscribe detaches the observer. Safe to call more than once.
func (t *Ticket) Unsubscribe() {
	if t == nil || t.unsubscribe == nil {
		return
	}
	t.unsubscribe()
	t.unsubscribe = nil
}

// observableBase is a minimal per-event pub/sub bus, the Go rendering
// of the teacher's ObservableBase notification pattern.
type observableBase struct {
	mu        sync.Mutex
	observers map[Event]map[int]func()
	nextID    int
}

func newObservableBase() *observableBase {
	return &observableBase{observers: map[Event]map[int]func(){}}
}

// Observe registers fn to be called whenever evt fires.
func (o *observableBase) Observe(evt Event, fn func()) *Ticket {
	o.mu.Lock()
	if o.observers[evt] == nil {
		o.observers[evt] = map[int]func(){}
	}
	id := o.nextID
	o.nextID++
	o.observers[evt][id] = fn
	o.mu.Unlock()

	return &Ticket{unsubscribe: func() {
		o.mu.Lock()
		delete(o.observers[evt], id)
		o.mu.Unlock()
	}}
}

func (o *observableBase) fire(evt Event) {
	o.mu.Lock()
	fns := make([]func(), 0, len(o.observers[evt]))
	for _, fn := range o.observers[evt] {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
