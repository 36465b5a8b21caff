// Package attrschanging implements AttrsChangingJob (spec.md §4.8):
// walks a set of items, optionally recursing into directories, and
// applies chmod/chown/chflags/setTimes according to tri-state masks.
package attrschanging

import (
	"context"
	"path"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
)

// TriState is {unchanged, clear, set} for one attribute sub-bit (spec.md
// §4.8 "mask-and-value encoding").
type TriState int

const (
	Unchanged TriState = iota
	Clear
	Set
)

// Mask carries, per concern, the bits to touch and the value to apply.
// The job writes (current & ~mask) | (value & mask); a no-op when equal.
type Mask struct {
	Bits  uint32
	Value uint32
}

// apply computes the new value of current given this mask, and whether
// anything actually changes.
func (m Mask) apply(current uint32) (uint32, bool) {
	next := (current &^ m.Bits) | (m.Value & m.Bits)
	return next, next != current
}

// Options selects which concerns to touch; a zero-value Mask.Bits means
// "don't touch this concern at all".
type Options struct {
	Permissions Mask // mode permission bits
	Ownage      struct {
		SetUID, SetGID bool
		UID, GID       uint32
	}
	Flags     Mask
	Times     struct {
		SetATime, SetMTime bool
		ATime, MTime       time.Time
	}
	Recursive bool
}

type Resolution int

const (
	ResolutionStop Resolution = iota
	ResolutionSkip
	ResolutionRetry
)

type Callbacks struct {
	OnError func(path string, err error) Resolution
}

func (c *Callbacks) onError(p string, err error) Resolution {
	if c == nil || c.OnError == nil {
		return ResolutionStop
	}
	return c.OnError(p, err)
}

// Item is one top-level path to change attributes on.
type Item struct {
	Host vfs.Host
	Path string
}

// AttrsChangingJob implements ops.Performer.
type AttrsChangingJob struct {
	items     []Item
	opts      Options
	callbacks *Callbacks

	// cache cuts down repeat Stat calls across files that share a
	// directory ancestor, the Go rendering of the teacher's
	// chained-strings trie stat cache (spec.md §4.8).
	cache map[string]vfs.Stat

	job *ops.Job
}

func New(items []Item, opts Options, callbacks *Callbacks) *AttrsChangingJob {
	return &AttrsChangingJob{items: items, opts: opts, callbacks: callbacks, cache: map[string]vfs.Stat{}}
}

func (j *AttrsChangingJob) Title() string { return "Changing attributes" }

func (j *AttrsChangingJob) checkpoint() bool {
	j.job.BlockIfPaused()
	return j.job.IsStopped()
}

func (j *AttrsChangingJob) Perform(job *ops.Job) error {
	j.job = job
	ctx := context.Background()
	for _, it := range j.items {
		if j.checkpoint() {
			return nil
		}
		if err := j.apply(ctx, it.Host, it.Path); err != nil {
			return err
		}
	}
	return nil
}

func (j *AttrsChangingJob) statCached(ctx context.Context, host vfs.Host, p string) (vfs.Stat, error) {
	key := host.Tag() + ":" + p
	if st, ok := j.cache[key]; ok {
		return st, nil
	}
	st, err := host.Stat(ctx, p, vfs.FNoFollow)
	if err != nil {
		return st, err
	}
	j.cache[key] = st
	return st, nil
}

func (j *AttrsChangingJob) apply(ctx context.Context, host vfs.Host, p string) error {
	st, err := j.statCached(ctx, host, p)
	if err != nil {
		return j.handleErr(p, err)
	}

	if j.opts.Permissions.Bits != 0 && st.Meaning.Has(vfs.MeaningMode) {
		if next, changed := j.opts.Permissions.apply(uint32(st.Mode.Perm())); changed {
			if err := host.SetPermissions(ctx, p, vfs.Mode(next)); err != nil {
				if r := j.handleErr(p, err); r != nil {
					return r
				}
			}
		}
	}
	if (j.opts.Ownage.SetUID || j.opts.Ownage.SetGID) && st.Meaning.Has(vfs.MeaningUID|vfs.MeaningGID) {
		uid, gid := st.UID, st.GID
		if j.opts.Ownage.SetUID {
			uid = j.opts.Ownage.UID
		}
		if j.opts.Ownage.SetGID {
			gid = j.opts.Ownage.GID
		}
		if uid != st.UID || gid != st.GID {
			if err := host.SetOwnership(ctx, p, uid, gid); err != nil {
				if r := j.handleErr(p, err); r != nil {
					return r
				}
			}
		}
	}
	if j.opts.Flags.Bits != 0 && st.Meaning.Has(vfs.MeaningFlags) {
		if next, changed := j.opts.Flags.apply(st.Flags); changed {
			if err := host.SetFlags(ctx, p, next, false); err != nil {
				if r := j.handleErr(p, err); r != nil {
					return r
				}
			}
		}
	}
	if j.opts.Times.SetATime || j.opts.Times.SetMTime {
		at, mt := st.ATime, st.MTime
		if j.opts.Times.SetATime {
			at = j.opts.Times.ATime
		}
		if j.opts.Times.SetMTime {
			mt = j.opts.Times.MTime
		}
		if !at.Equal(st.ATime) || !mt.Equal(st.MTime) {
			if err := host.SetTimes(ctx, p, at, mt); err != nil {
				if r := j.handleErr(p, err); r != nil {
					return r
				}
			}
		}
	}

	j.job.Stats.Items.CommitProcessed(time.Now(), 1)
	j.job.ReportItem(host, p, ops.ItemProcessed)

	if st.Mode.IsDir() && j.opts.Recursive {
		var entries []vfs.ListingItem
		if err := host.IterateDirectoryListing(ctx, p, func(item vfs.ListingItem) error {
			entries = append(entries, item)
			return nil
		}); err != nil {
			return j.handleErr(p, err)
		}
		for _, item := range entries {
			if j.checkpoint() {
				return nil
			}
			if err := j.apply(ctx, host, path.Join(p, item.Filename)); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleErr resolves a failed attribute/stat operation. Retry is
// handled exactly like Skip: p is counted as skipped and is not
// attempted again.
func (j *AttrsChangingJob) handleErr(p string, err error) error {
	switch j.callbacks.onError(p, err) {
	case ResolutionSkip, ResolutionRetry:
		j.job.Stats.Items.CommitSkipped(1)
		return nil
	default:
		j.job.Stop()
		return err
	}
}
