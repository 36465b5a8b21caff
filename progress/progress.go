// Package progress implements the dual-source (bytes, items) monotonic
// progress counters and the rolling throughput/ETA timeline described in
// spec.md §4.1, plus the Statistics wrapper (§4.2) and a read-only
// Aggregate view combining several Statistics (original_source's
// AggregateProgressTracker, supplemented in SPEC_FULL §3.1).
package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// bucket is one second of fractional progress, as described in spec.md
// §4.1 "Timeline": {value, fraction}. fraction is always in (0, 1].
type bucket struct {
	value    int64
	fraction float64
}

// Progress tracks one source (bytes or items) of work: how much is
// estimated, how much has been processed, and a timeline used to derive
// throughput and ETA.
type Progress struct {
	estimated int64 // atomic
	processed int64 // atomic

	mu       sync.Mutex
	buckets  map[int64]*bucket // keyed by second-since-base
	base     time.Time
	last     time.Time
	lastFrac float64 // fractional position within the bucket at `last`
}

// NewProgress creates a Progress with its clock started at now.
func NewProgress(now time.Time) *Progress {
	return &Progress{
		buckets: map[int64]*bucket{},
		base:    now,
		last:    now,
	}
}

// Estimated returns the total planned work.
func (p *Progress) Estimated() int64 { return atomic.LoadInt64(&p.estimated) }

// Processed returns the completed work. CommitProcessed does not clamp,
// so Processed can exceed Estimated; DoneFraction caps its result at 1.
func (p *Progress) Processed() int64 { return atomic.LoadInt64(&p.processed) }

// CommitEstimated adds delta (may be negative, though callers normally
// only grow the estimate) to the estimated total.
func (p *Progress) CommitEstimated(delta int64) {
	atomic.AddInt64(&p.estimated, delta)
}

// CommitSkipped removes delta from the estimated total without moving
// processed (spec.md §4.1: "never increases processed"). If this would
// drive processed above the new estimated, estimated is clamped up to
// processed instead of going negative relative to it, and a warning
// should be logged by the caller (spec.md §4.1, §7 "logging is advisory
// only").
func (p *Progress) CommitSkipped(delta int64) (clamped bool) {
	newEstimated := atomic.AddInt64(&p.estimated, -delta)
	processed := atomic.LoadInt64(&p.processed)
	if newEstimated < processed {
		atomic.StoreInt64(&p.estimated, processed)
		return true
	}
	return false
}

// CommitProcessed adds delta to processed and distributes it across the
// timeline buckets spanning [last, now).
func (p *Progress) CommitProcessed(now time.Time, delta int64) {
	atomic.AddInt64(&p.processed, delta)
	if delta < 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.distribute(now, delta)
}

// distribute splits delta proportionally across the 1-second buckets
// between p.last and now, crediting the fraction of each second that
// elapsed within this commit. Must be called with p.mu held.
func (p *Progress) distribute(now time.Time, delta int64) {
	if !now.After(p.last) {
		// Clock didn't advance (e.g. two commits in the same instant);
		// credit it all to the current bucket.
		p.creditBucket(p.secondIndex(p.last), float64(delta), 1)
		return
	}
	totalElapsed := now.Sub(p.last).Seconds()
	if totalElapsed <= 0 {
		return
	}
	startSec := p.secondIndex(p.last)
	endSec := p.secondIndex(now)

	if startSec == endSec {
		p.creditBucket(startSec, float64(delta), totalElapsed)
		p.last = now
		return
	}

	// Fraction of [p.last, now) that falls in the first (partial) second.
	firstSecEnd := p.base.Add(time.Duration(startSec+1) * time.Second)
	firstFrac := firstSecEnd.Sub(p.last).Seconds()
	remaining := delta
	firstShare := int64(float64(delta) * (firstFrac / totalElapsed))
	p.creditBucket(startSec, float64(firstShare), firstFrac)
	remaining -= firstShare

	fullSeconds := endSec - startSec - 1
	if fullSeconds > 0 {
		perSecond := float64(remaining) / float64(endSec-startSec)
		for s := startSec + 1; s < endSec; s++ {
			p.creditBucket(s, perSecond, 1)
			remaining -= int64(perSecond)
		}
	}

	lastFrac := now.Sub(p.base.Add(time.Duration(endSec) * time.Second)).Seconds()
	if lastFrac > 0 {
		p.creditBucket(endSec, float64(remaining), lastFrac)
	}
	p.last = now
}

func (p *Progress) secondIndex(t time.Time) int64 {
	return int64(t.Sub(p.base).Seconds())
}

func (p *Progress) creditBucket(sec int64, value, fraction float64) {
	if fraction <= 0 {
		return
	}
	b, ok := p.buckets[sec]
	if !ok {
		b = &bucket{}
		p.buckets[sec] = b
	}
	b.value += int64(value)
	b.fraction += fraction
	if b.fraction > 1 {
		b.fraction = 1
	}
}

// ReportSleptDelta advances the base time point (and the last-commit
// point) forward by delta, so that a paused interval does not appear as
// a throughput stall (spec.md §4.1 "Pause").
func (p *Progress) ReportSleptDelta(delta time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Add(delta)
	p.last = p.last.Add(delta)
}

// VolumePerSecondDirect is processed / (last - base).
func (p *Progress) VolumePerSecondDirect() float64 {
	p.mu.Lock()
	elapsed := p.last.Sub(p.base).Seconds()
	p.mu.Unlock()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.Processed()) / elapsed
}

// VolumePerSecondAverage is the mean, over buckets whose fraction is at
// least 0.5, of (value / fraction).
func (p *Progress) VolumePerSecondAverage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum float64
	var n int
	for _, b := range p.buckets {
		if b.fraction >= 0.5 {
			sum += float64(b.value) / b.fraction
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ETA returns the estimated remaining duration, or nil if the speed is
// currently zero, or zero if already complete (spec.md §4.1).
func (p *Progress) ETA() *time.Duration {
	estimated, processed := p.Estimated(), p.Processed()
	if processed >= estimated {
		zero := time.Duration(0)
		return &zero
	}
	speed := p.VolumePerSecondDirect()
	if speed <= 0 {
		return nil
	}
	remaining := float64(estimated - processed)
	d := time.Duration(remaining/speed) * time.Second
	return &d
}

// DoneFraction is processed/estimated, clamped to [0, 1]; 0 when
// estimated is 0 (spec.md §8 invariant "DoneFraction ∈ [0,1]").
func (p *Progress) DoneFraction() float64 {
	estimated, processed := p.Estimated(), p.Processed()
	if estimated <= 0 {
		return 0
	}
	f := float64(processed) / float64(estimated)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// String renders a human-readable summary using the same humanize
// formatting rclone uses for transfer stats, e.g.
// "5.0 MB/12 MB (1.2 MB/s, ETA 4m12s)".
func (p *Progress) String() string {
	speed := p.VolumePerSecondDirect()
	eta := p.ETA()
	etaStr := "-"
	if eta != nil {
		etaStr = eta.Round(time.Second).String()
	}
	return humanize.Bytes(uint64(p.Processed())) + "/" + humanize.Bytes(uint64(p.Estimated())) +
		" (" + humanize.Bytes(uint64(speed)) + "/s, ETA " + etaStr + ")"
}
