package copying

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
)

// preallocator is the optional capability a vfs.File may implement to
// reserve space ahead of writing (spec.md §4.6 "Preallocation").
type preallocator interface {
	Preallocate(delta int64) error
}

// processRegularFile implements spec.md §4.6's regular-file copy engine
// and the rename-same-volume fast path.
func (j *CopyingJob) processRegularFile(ctx context.Context, item scanItem) error {
	if j.canRename(item) {
		return j.renameRegularFile(ctx, item)
	}
	return j.copyRegularFile(ctx, item)
}

func (j *CopyingJob) renameRegularFile(ctx context.Context, item scanItem) error {
	if item.DstHost.Exists(ctx, item.DstPath) {
		dstStat, _ := item.DstHost.Stat(ctx, item.DstPath, vfs.FNoFollow)
		res, appendMode, dstName := j.resolveDestConflict(ctx, item, dstStat, true)
		switch res {
		case conflictSkip:
			j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
			return nil
		case conflictStop:
			j.job.Stop()
			return nil
		}
		_ = appendMode
		if dstName != "" {
			item.DstPath = path.Join(path.Dir(item.DstPath), dstName)
		}
	}
	if err := item.SrcHost.Rename(ctx, item.SrcPath, item.DstPath); err != nil {
		if vfs.IsPermissionLocked(err, item.Stat.Flags) {
			return j.handleLockedItem(ctx, item, CauseMoving, func() error {
				return item.SrcHost.Rename(ctx, item.SrcPath, item.DstPath)
			})
		}
		return j.handleDeleteDestErr(item.DstPath, err)
	}
	j.job.Stats.Bytes.CommitProcessed(time.Now(), int64(item.Stat.Size))
	j.commitItem(item)
	return nil
}

type conflictResolution int

const (
	conflictProceed conflictResolution = iota
	conflictSkip
	conflictStop
	conflictAppend
)

// resolveDestConflict unifies ExistBehavior and the two distinct
// callback alphabets (copy-conflict vs rename-conflict) into one
// internal decision, returning an optional KeepBoth destination name.
func (j *CopyingJob) resolveDestConflict(ctx context.Context, item scanItem, dst vfs.Stat, isRename bool) (conflictResolution, bool, string) {
	olderWins := func() bool { return item.Stat.MTime.After(dst.MTime) }

	switch j.opts.ExistBehavior {
	case ExistSkipAll:
		return conflictSkip, false, ""
	case ExistOverwriteAll:
		return conflictProceed, false, ""
	case ExistOverwriteOld:
		if olderWins() {
			return conflictProceed, false, ""
		}
		return conflictSkip, false, ""
	case ExistAppendAll:
		if !isRename {
			return conflictAppend, true, ""
		}
	case ExistStop:
		return conflictStop, false, ""
	case ExistKeepBoth:
		name, err := j.nonexistentDstName(ctx, item.DstHost, path.Dir(item.DstPath), path.Base(item.DstPath))
		if err != nil {
			return conflictStop, false, ""
		}
		return conflictProceed, false, name
	}

	if isRename {
		switch j.callbacks.renameDestinationAlreadyExists(item.SrcPath, item.DstPath, dst) {
		case RenameExistsOverwrite:
			return conflictProceed, false, ""
		case RenameExistsOverwriteOld:
			if olderWins() {
				return conflictProceed, false, ""
			}
			return conflictSkip, false, ""
		case RenameExistsSkip:
			return conflictSkip, false, ""
		case RenameExistsKeepBoth:
			name, err := j.nonexistentDstName(ctx, item.DstHost, path.Dir(item.DstPath), path.Base(item.DstPath))
			if err != nil {
				return conflictStop, false, ""
			}
			return conflictProceed, false, name
		default:
			return conflictStop, false, ""
		}
	}

	switch j.callbacks.copyDestinationAlreadyExists(item.Stat, item.DstPath, dst) {
	case ExistsOverwrite:
		return conflictProceed, false, ""
	case ExistsOverwriteOld:
		if olderWins() {
			return conflictProceed, false, ""
		}
		return conflictSkip, false, ""
	case ExistsAppend:
		return conflictAppend, true, ""
	case ExistsSkip:
		return conflictSkip, false, ""
	case ExistsKeepBoth:
		name, err := j.nonexistentDstName(ctx, item.DstHost, path.Dir(item.DstPath), path.Base(item.DstPath))
		if err != nil {
			return conflictStop, false, ""
		}
		return conflictProceed, false, name
	default:
		return conflictStop, false, ""
	}
}

// nonexistentDstName produces "name N[.ext]" with the smallest integer
// N>=2 not already present on host (spec.md §4.6 "KeepBoth").
func (j *CopyingJob) nonexistentDstName(ctx context.Context, host vfs.Host, dir, name string) (string, error) {
	if j.callbacks != nil && j.callbacks.RequestNonexistentDst != nil {
		return j.callbacks.RequestNonexistentDst(host, dir, name)
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s %d%s", base, n, ext)
		if !host.Exists(ctx, path.Join(dir, candidate)) {
			return candidate, nil
		}
	}
}

// copyRegularFile is the byte-shuffling engine of spec.md §4.6: open
// source/destination per the New/Overwrite/Append scenario, optionally
// preallocate, copy in two rotating buffers, optionally MD5-hash, and
// apply post-copy metadata.
func (j *CopyingJob) copyRegularFile(ctx context.Context, item scanItem) error {
	appendMode := false
	if item.DstHost.Exists(ctx, item.DstPath) {
		dstStat, _ := item.DstHost.Stat(ctx, item.DstPath, vfs.FNoFollow)
		res, isAppend, dstName := j.resolveDestConflict(ctx, item, dstStat, false)
		switch res {
		case conflictSkip:
			j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
			return nil
		case conflictStop:
			j.job.Stop()
			return nil
		}
		appendMode = isAppend
		if dstName != "" {
			item.DstPath = path.Join(path.Dir(item.DstPath), dstName)
		} else if !appendMode {
			if j.opts.CopyXAttrs {
				_ = item.DstHost.XAttrRemoveAll(ctx, item.DstPath)
			}
		}
	}

	src, err := item.SrcHost.Open(ctx, item.SrcPath, vfs.OFRead|vfs.OFShLock|vfs.OFNoCache, 0)
	if err != nil {
		switch j.callbacks.sourceFileReadError(item.SrcPath, err) {
		case IORetry:
			return j.copyRegularFile(ctx, item)
		case IOSkip:
			j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
			return nil
		default:
			j.job.Stop()
			return err
		}
	}
	defer src.Close()

	openFlags := vfs.OFWrite
	switch {
	case appendMode:
		openFlags |= vfs.OFAppend
	default:
		openFlags |= vfs.OFCreate | vfs.OFTruncate
	}
	dst, err := item.DstHost.Open(ctx, item.DstPath, openFlags, item.Stat.Mode.Perm())
	if err != nil {
		switch j.callbacks.cantOpenDestinationFile(item.DstPath, err) {
		case IORetry:
			return j.copyRegularFile(ctx, item)
		case IOSkip:
			j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
			return nil
		default:
			j.job.Stop()
			return err
		}
	}

	if !appendMode {
		if p, ok := dst.(preallocator); ok {
			delta := int64(item.Stat.Size) - dst.Size()
			if delta > 4096 {
				_ = p.Preallocate(delta)
			}
		}
	}

	shouldVerify := j.opts.Verification == VerificationAlways ||
		(j.opts.Verification == VerificationWhenMoves && !j.opts.DoCopy)

	hash := md5.New()
	err = j.ioLoop(ctx, item, src, dst, hash)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if j.job.IsStopped() {
		return nil
	}

	if shouldVerify {
		var sum [16]byte
		copy(sum[:], hash.Sum(nil))
		j.checksums = append(j.checksums, ChecksumExpectation{
			SourceIndex:     item.SourceIndex,
			DestinationPath: item.DstPath,
			DestinationHost: item.DstHost,
			MD5:             sum,
		})
	}

	if !appendMode {
		j.applyFileAttributes(ctx, item)
	}
	// copyRegularFile only ever runs when canRename(item) is false
	// (processRegularFile routes same-host moves to renameRegularFile
	// instead), so a move that reached here is necessarily a cross-host
	// move: the source survived the copy and still needs deleting.
	if !j.opts.DoCopy {
		j.markNeedsDelete(item)
	}
	j.job.Stats.Bytes.CommitProcessed(time.Now(), int64(item.Stat.Size))
	j.commitItem(item)
	return nil
}

// ioLoop is the two-buffer read/write pump (spec.md §4.6 "I/O loop").
// Buffers are fixed-size and rotated each iteration so read and write
// never share memory.
func (j *CopyingJob) ioLoop(ctx context.Context, item scanItem, src, dst vfs.File, hash io.Writer) error {
	chunk := ioBufferSize
	if srcIO := src.PreferredIOSize(); srcIO > 0 && srcIO < chunk {
		chunk = srcIO
	}
	if dstIO := dst.PreferredIOSize(); dstIO > 0 && dstIO > chunk && dstIO <= ioBufferSize {
		chunk = dstIO
	}
	bufA := make([]byte, chunk)
	bufB := make([]byte, chunk)
	buffers := [2][]byte{bufA, bufB}
	zeroStreak := 0

	for i := 0; ; i++ {
		if j.checkpoint() {
			return nil
		}
		buf := buffers[i%2]
		n, rerr := src.Read(buf)
		if n == 0 && rerr == nil {
			zeroStreak++
			if zeroStreak > maxConsecutiveZeroReads {
				return fmt.Errorf("copying %s: too many zero-byte reads", item.SrcPath)
			}
			continue
		}
		zeroStreak = 0
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				switch j.callbacks.destinationFileWriteError(item.DstPath, werr) {
				case IORetry:
					continue
				case IOSkip:
					j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
					return nil
				default:
					j.job.Stop()
					return werr
				}
			}
			hash.Write(buf[:n])
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			switch j.callbacks.sourceFileReadError(item.SrcPath, rerr) {
			case IORetry:
				continue
			case IOSkip:
				j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
				return nil
			default:
				j.job.Stop()
				return rerr
			}
		}
	}
}

func (j *CopyingJob) applyFileAttributes(ctx context.Context, item scanItem) {
	host := item.DstHost
	if j.opts.CopyXAttrs {
		j.copyXAttrs(ctx, item.SrcHost, item.SrcPath, host, item.DstPath)
	}
	// OSX FinderInfo may alter flags, so flags are applied after xattrs
	// (spec.md §4.6 "Post-copy metadata").
	if j.opts.CopyUnixFlags && item.Stat.Meaning.Has(vfs.MeaningFlags) {
		_ = host.SetFlags(ctx, item.DstPath, item.Stat.Flags, false)
	}
	if j.opts.CopyUnixOwners && item.Stat.Meaning.Has(vfs.MeaningUID) {
		_ = host.SetOwnership(ctx, item.DstPath, item.Stat.UID, item.Stat.GID)
	}
	if item.Stat.Meaning.Has(vfs.MeaningMode) {
		_ = host.SetPermissions(ctx, item.DstPath, item.Stat.Mode.Perm())
	}
	if j.opts.CopyFileTimes {
		_ = host.SetTimes(ctx, item.DstPath, item.Stat.ATime, item.Stat.MTime)
	}
}

func (j *CopyingJob) copyXAttrs(ctx context.Context, srcHost vfs.Host, srcPath string, dstHost vfs.Host, dstPath string) {
	if !srcHost.Features().Has(vfs.FeatureXAttrs) || !dstHost.Features().Has(vfs.FeatureXAttrs) {
		return
	}
	names, err := srcHost.XAttrNames(ctx, srcPath)
	if err != nil {
		return
	}
	for _, name := range names {
		val, err := srcHost.XAttrGet(ctx, srcPath, name)
		if err != nil {
			continue
		}
		_ = dstHost.XAttrSet(ctx, dstPath, name, val)
	}
}

// handleLockedItem implements spec.md §4.6/§4.7 "Locked items":
// EPERM+UF_IMMUTABLE routes through OnLockedItemIssue; Unlock clears
// the flag via SetFlags(no-follow) and retries retryFn.
func (j *CopyingJob) handleLockedItem(ctx context.Context, item scanItem, cause LockedItemCause, retryFn func() error) error {
	for {
		res := j.callbacks.lockedItemIssue(item.SrcPath, cause)
		switch res {
		case LockedSkipR:
			j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
			return nil
		case LockedUnlockR:
			if err := item.SrcHost.SetFlags(ctx, item.SrcPath, item.Stat.Flags&^vfs.FlagImmutable, true); err != nil {
				switch j.callbacks.unlockError(item.SrcPath, err) {
				case IORetry:
					continue
				case IOSkip:
					return nil
				default:
					j.job.Stop()
					return err
				}
			}
			if err := retryFn(); err != nil {
				continue
			}
			j.job.Stats.Bytes.CommitProcessed(time.Now(), int64(item.Stat.Size))
			j.commitItem(item)
			return nil
		case LockedRetryR:
			if err := retryFn(); err != nil {
				continue
			}
			return nil
		default:
			j.job.Stop()
			return nil
		}
	}
}
