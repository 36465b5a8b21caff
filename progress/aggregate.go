package progress

import (
	"sync"
	"time"
)

// Aggregate is a read-only combined view over several jobs' Statistics,
// the supplemented AggregateProgressTracker feature from original_source
// (SPEC_FULL §3.1): the UI shows one overall bar for "3 operations
// running" by summing estimated/processed across every tracked job
// rather than forcing the caller to add members by hand.
type Aggregate struct {
	mu      sync.RWMutex
	members map[string]*Statistics
}

// NewAggregate creates an empty Aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{members: map[string]*Statistics{}}
}

// Track registers a job's Statistics under id. Re-registering the same
// id replaces the previous entry.
func (a *Aggregate) Track(id string, s *Statistics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.members[id] = s
}

// Untrack removes a completed job from the aggregate.
func (a *Aggregate) Untrack(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.members, id)
}

// Len reports how many jobs are currently tracked.
func (a *Aggregate) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.members)
}

// TotalBytes sums Estimated/Processed across every tracked job's byte
// Progress.
func (a *Aggregate) TotalBytes() (estimated, processed int64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, s := range a.members {
		estimated += s.Bytes.Estimated()
		processed += s.Bytes.Processed()
	}
	return
}

// TotalItems sums Estimated/Processed across every tracked job's item
// Progress.
func (a *Aggregate) TotalItems() (estimated, processed int64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, s := range a.members {
		estimated += s.Items.Estimated()
		processed += s.Items.Processed()
	}
	return
}

// DoneFraction is the combined done-fraction across every member,
// weighted by each member's preferred-source estimate (a job with a
// 10GB estimate moves the aggregate bar more than one with 1KB).
func (a *Aggregate) DoneFraction() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var totalEstimated, totalProcessed float64
	for _, s := range a.members {
		src := s.PreferredSource()
		totalEstimated += float64(src.Estimated())
		totalProcessed += float64(src.Processed())
	}
	if totalEstimated <= 0 {
		return 0
	}
	f := totalProcessed / totalEstimated
	if f > 1 {
		return 1
	}
	return f
}

// SlowestETA returns the largest ETA among members that have one, which
// is the conservative "when will everything be done" answer; nil if no
// member currently has a computable ETA.
func (a *Aggregate) SlowestETA() *time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var slowest *time.Duration
	for _, s := range a.members {
		eta := s.ETA()
		if eta == nil {
			continue
		}
		if slowest == nil || *eta > *slowest {
			slowest = eta
		}
	}
	return slowest
}
