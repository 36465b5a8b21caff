// Package deletion implements DeletionJob (spec.md §4.7): a recursive
// scan into a LIFO stack, dispatching each item to trash or permanent
// removal, sharing CopyingJob's locked-item handling.
package deletion

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
)

// ItemType selects whether an item is sent to the host's Trash or
// removed permanently.
type ItemType int

const (
	Trash ItemType = iota
	Permanent
)

// Options configures a DeletionJob.
type Options struct {
	Type ItemType
}

type stackEntry struct {
	Host vfs.Host
	Path string
	Stat vfs.Stat
	Type ItemType
}

// Resolution alphabets (spec.md §6 "DeletionJob callbacks").
type ReadDirResolution int

const (
	ReadDirStop ReadDirResolution = iota
	ReadDirSkip
	ReadDirRetry
)

type RemoveResolution int

const (
	RemoveStop RemoveResolution = iota
	RemoveSkip
	RemoveRetry
)

type TrashResolution int

const (
	TrashStop TrashResolution = iota
	TrashSkip
	TrashRetry
	TrashDeletePermanently
)

type LockedItemResolution int

const (
	LockedStop LockedItemResolution = iota
	LockedSkip
	LockedUnlock
	LockedRetry
)

// Callbacks is the worker-thread callback surface; nil fields default
// to Stop.
type Callbacks struct {
	ReadDir     func(path string, err error) ReadDirResolution
	Unlink      func(path string, err error) RemoveResolution
	Rmdir       func(path string, err error) RemoveResolution
	TrashErr    func(path string, err error) TrashResolution
	LockedItem  func(path string) LockedItemResolution
	UnlockError func(path string, err error) RemoveResolution
}

func (c *Callbacks) readDir(p string, err error) ReadDirResolution {
	if c == nil || c.ReadDir == nil {
		return ReadDirStop
	}
	return c.ReadDir(p, err)
}
func (c *Callbacks) unlink(p string, err error) RemoveResolution {
	if c == nil || c.Unlink == nil {
		return RemoveStop
	}
	return c.Unlink(p, err)
}
func (c *Callbacks) rmdir(p string, err error) RemoveResolution {
	if c == nil || c.Rmdir == nil {
		return RemoveStop
	}
	return c.Rmdir(p, err)
}
func (c *Callbacks) trashErr(p string, err error) TrashResolution {
	if c == nil || c.TrashErr == nil {
		return TrashStop
	}
	return c.TrashErr(p, err)
}
func (c *Callbacks) lockedItem(p string) LockedItemResolution {
	if c == nil || c.LockedItem == nil {
		return LockedStop
	}
	return c.LockedItem(p)
}
func (c *Callbacks) unlockError(p string, err error) RemoveResolution {
	if c == nil || c.UnlockError == nil {
		return RemoveStop
	}
	return c.UnlockError(p, err)
}

// Item is one top-level path the caller asked to delete.
type Item struct {
	Host vfs.Host
	Path string
}

// DeletionJob implements ops.Performer.
type DeletionJob struct {
	items     []Item
	opts      Options
	callbacks *Callbacks

	stack []stackEntry
	job   *ops.Job
}

// New constructs a DeletionJob. Mixing Trash with a non-native source
// is a programmer-contract violation (spec.md §7) and panics at
// construction.
func New(items []Item, opts Options, callbacks *Callbacks) *DeletionJob {
	if opts.Type == Trash {
		for _, it := range items {
			if !it.Host.IsNativeFS() {
				panic("deletion: trash requested for a non-native host")
			}
		}
	}
	return &DeletionJob{items: items, opts: opts, callbacks: callbacks}
}

func (j *DeletionJob) Title() string {
	if j.opts.Type == Trash {
		return "Moving items to Trash"
	}
	return "Deleting items"
}

// ItemsInScript exposes the scanned stack depth for test assertions and
// UI estimation (spec.md §4.7).
func (j *DeletionJob) ItemsInScript() int { return len(j.stack) }

func (j *DeletionJob) checkpoint() bool {
	j.job.BlockIfPaused()
	return j.job.IsStopped()
}

// Perform runs the scan-then-pop pipeline.
func (j *DeletionJob) Perform(job *ops.Job) error {
	j.job = job
	ctx := context.Background()

	for _, it := range j.items {
		if j.checkpoint() {
			return nil
		}
		if err := j.scan(ctx, it.Host, it.Path, j.opts.Type); err != nil {
			return err
		}
	}

	for len(j.stack) > 0 {
		if j.checkpoint() {
			return nil
		}
		top := j.stack[len(j.stack)-1]
		j.stack = j.stack[:len(j.stack)-1]
		if err := j.dispatch(ctx, top); err != nil {
			return err
		}
	}
	return nil
}

func (j *DeletionJob) scan(ctx context.Context, host vfs.Host, p string, typ ItemType) error {
	st, err := host.Stat(ctx, p, vfs.FNoFollow)
	if err != nil {
		return j.handleReadDirErr(p, err)
	}

	j.stack = append(j.stack, stackEntry{Host: host, Path: p, Stat: st, Type: typ})
	j.job.Stats.Items.CommitEstimated(1)
	if !st.Mode.IsDir() {
		j.job.Stats.Bytes.CommitEstimated(int64(st.Size))
		return nil
	}

	// Recurse when Permanent and the host cannot RemoveDirectory a
	// non-empty directory in one call (spec.md §4.7).
	if typ != Permanent || host.Features().Has(vfs.FeatureNonEmptyRmDir) {
		return nil
	}
	return j.scanDirChildren(ctx, host, p, typ)
}

func (j *DeletionJob) scanDirChildren(ctx context.Context, host vfs.Host, dir string, typ ItemType) error {
	var entries []vfs.ListingItem
	err := host.IterateDirectoryListing(ctx, dir, func(item vfs.ListingItem) error {
		if j.isXAttrSidecar(ctx, host, dir, item) {
			return nil
		}
		entries = append(entries, item)
		return nil
	})
	if err != nil {
		return j.handleReadDirErr(dir, err)
	}
	for _, item := range entries {
		if j.checkpoint() {
			return nil
		}
		if err := j.scan(ctx, host, path.Join(dir, item.Filename), typ); err != nil {
			return err
		}
	}
	return nil
}

func (j *DeletionJob) isXAttrSidecar(ctx context.Context, host vfs.Host, dir string, item vfs.ListingItem) bool {
	if !host.IsNativeFS() || host.Features().Has(vfs.FeatureXAttrs) {
		return false
	}
	if !strings.HasPrefix(item.Filename, "._") {
		return false
	}
	return host.Exists(ctx, path.Join(dir, item.Filename[2:]))
}

func (j *DeletionJob) handleReadDirErr(p string, err error) error {
	switch j.callbacks.readDir(p, err) {
	case ReadDirSkip, ReadDirRetry:
		return nil
	default:
		j.job.Stop()
		return err
	}
}

func (j *DeletionJob) dispatch(ctx context.Context, e stackEntry) error {
	if e.Type == Permanent {
		return j.dispatchPermanent(ctx, e)
	}
	return j.dispatchTrash(ctx, e)
}

func (j *DeletionJob) dispatchPermanent(ctx context.Context, e stackEntry) error {
	var err error
	if e.Stat.Mode.IsDir() {
		err = e.Host.RemoveDirectory(ctx, e.Path)
	} else {
		err = e.Host.Unlink(ctx, e.Path)
	}
	if err == nil {
		j.commit(e)
		return nil
	}
	if vfs.IsPermissionLocked(err, e.Stat.Flags) {
		return j.handleLocked(ctx, e)
	}
	var res RemoveResolution
	if e.Stat.Mode.IsDir() {
		res = j.callbacks.rmdir(e.Path, err)
	} else {
		res = j.callbacks.unlink(e.Path, err)
	}
	switch res {
	case RemoveSkip:
		j.job.ReportItem(e.Host, e.Path, ops.ItemSkipped)
		return nil
	case RemoveRetry:
		j.stack = append(j.stack, e)
		return nil
	default:
		j.job.Stop()
		return err
	}
}

func (j *DeletionJob) dispatchTrash(ctx context.Context, e stackEntry) error {
	err := e.Host.Trash(ctx, e.Path)
	if err == nil {
		j.commit(e)
		return nil
	}
	if vfs.IsPermissionLocked(err, e.Stat.Flags) {
		return j.handleLocked(ctx, e)
	}
	switch j.callbacks.trashErr(e.Path, err) {
	case TrashSkip:
		j.job.ReportItem(e.Host, e.Path, ops.ItemSkipped)
		return nil
	case TrashRetry:
		j.stack = append(j.stack, e)
		return nil
	case TrashDeletePermanently:
		e.Type = Permanent
		if e.Stat.Mode.IsDir() {
			if err := j.scanDirChildren(ctx, e.Host, e.Path, Permanent); err != nil {
				return err
			}
		}
		j.stack = append(j.stack, e)
		return nil
	default:
		j.job.Stop()
		return err
	}
}

func (j *DeletionJob) handleLocked(ctx context.Context, e stackEntry) error {
	switch j.callbacks.lockedItem(e.Path) {
	case LockedSkip:
		j.job.ReportItem(e.Host, e.Path, ops.ItemSkipped)
		return nil
	case LockedUnlock:
		if err := e.Host.SetFlags(ctx, e.Path, e.Stat.Flags&^vfs.FlagImmutable, true); err != nil {
			switch j.callbacks.unlockError(e.Path, err) {
			case RemoveRetry, RemoveSkip:
				return nil
			default:
				j.job.Stop()
				return err
			}
		}
		j.stack = append(j.stack, e)
		return nil
	case LockedRetry:
		j.stack = append(j.stack, e)
		return nil
	default:
		j.job.Stop()
		return nil
	}
}

func (j *DeletionJob) commit(e stackEntry) {
	j.job.Stats.Items.CommitProcessed(time.Now(), 1)
	if !e.Stat.Mode.IsDir() {
		j.job.Stats.Bytes.CommitProcessed(time.Now(), int64(e.Stat.Size))
	}
	j.job.ReportItem(e.Host, e.Path, ops.ItemProcessed)
}
