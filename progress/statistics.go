package progress

import (
	"sync"
	"time"
)

// Statistics is the per-job counter pair described in spec.md §4.2: one
// Progress tracking bytes, one tracking items, plus pause-aware wall
// clock bookkeeping. Jobs report against Statistics, not Progress
// directly, so that pausing affects both sources identically.
type Statistics struct {
	Bytes *Progress
	Items *Progress

	mu         sync.Mutex
	started    time.Time
	pausedAt   time.Time
	paused     bool
	pauseDepth int // re-entrant: PauseAdd/ResumeAdd must balance
	slept      time.Duration
}

// NewStatistics creates a Statistics pair with both clocks started at now.
func NewStatistics(now time.Time) *Statistics {
	return &Statistics{
		Bytes:   NewProgress(now),
		Items:   NewProgress(now),
		started: now,
	}
}

// PauseAdd marks one more reason the owning job is paused. The wall
// clock (and hence throughput/ETA) freezes once depth goes from 0 to 1.
func (s *Statistics) PauseAdd(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseDepth++
	if !s.paused {
		s.paused = true
		s.pausedAt = now
	}
}

// ResumeAdd removes one pause reason. Once depth returns to 0 the
// elapsed pause interval is folded into both Progress clocks via
// ReportSleptDelta so it does not count against throughput.
func (s *Statistics) ResumeAdd(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseDepth == 0 {
		return
	}
	s.pauseDepth--
	if s.pauseDepth == 0 && s.paused {
		delta := now.Sub(s.pausedAt)
		s.slept += delta
		s.paused = false
		s.mu.Unlock()
		s.Bytes.ReportSleptDelta(delta)
		s.Items.ReportSleptDelta(delta)
		s.mu.Lock()
	}
}

// IsPaused reports whether any pause reason is currently active.
func (s *Statistics) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Elapsed returns wall-clock duration since start, excluding all time
// spent paused (finished pauses and the current one).
func (s *Statistics) Elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := now
	if s.paused {
		end = s.pausedAt
	}
	return end.Sub(s.started) - s.slept
}

// PreferredSource picks which Progress (bytes or items) should drive the
// user-facing percentage/ETA, per spec.md §4.2: bytes if any byte work
// is estimated, otherwise items. A zero-byte batch of zero-length files
// (e.g. empty directories) falls back to item count so the bar still
// moves.
func (s *Statistics) PreferredSource() *Progress {
	if s.Bytes.Estimated() > 0 {
		return s.Bytes
	}
	return s.Items
}

// DoneFraction delegates to the preferred source.
func (s *Statistics) DoneFraction() float64 {
	return s.PreferredSource().DoneFraction()
}

// ETA delegates to the preferred source.
func (s *Statistics) ETA() *time.Duration {
	return s.PreferredSource().ETA()
}
