package copying

import (
	"context"
	"path"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
)

// process dispatches every scanned item to the right routine (spec.md
// §4.6 "Dispatch matrix"). Our Host abstraction already collapses the
// nine native/vfs routine variants down to host-agnostic copy/rename
// calls; the matrix survives as the same-host decisioning below, not as
// nine distinct functions. Volumes within one host are not told apart:
// every same-host move is attempted as a Rename.
func (j *CopyingJob) process(ctx context.Context) error {
	// Children must be created after their parent directories, so a
	// plain forward scan order (parents pushed before descendants) is
	// already correct; no extra sort is needed given scanDir's walk.
	for _, item := range j.scanned {
		if j.checkpoint() {
			return nil
		}
		var err error
		switch {
		case item.Stat.Mode.IsDir():
			err = j.processDirectory(ctx, item)
		case item.Stat.Mode.IsSymlink():
			err = j.processSymlink(ctx, item)
		default:
			err = j.processRegularFile(ctx, item)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (j *CopyingJob) sameHost(a, b vfs.Host) bool { return a.Tag() == b.Tag() }

func (j *CopyingJob) canRename(item scanItem) bool {
	return !j.opts.DoCopy && j.sameHost(item.SrcHost, item.DstHost)
}

func (j *CopyingJob) processDirectory(ctx context.Context, item scanItem) error {
	exists := item.DstHost.Exists(ctx, item.DstPath)
	if j.canRename(item) {
		if exists {
			dstStat, _ := item.DstHost.Stat(ctx, item.DstPath, vfs.FNoFollow)
			if !dstStat.Mode.IsDir() {
				res := j.callbacks.notADirectory(item.DstPath)
				if res != NotADirOverwrite {
					return j.resolveNotADirStop(res, item.DstPath)
				}
				if err := item.DstHost.Unlink(ctx, item.DstPath); err != nil {
					return j.handleDeleteDestErr(item.DstPath, err)
				}
			} else if !vfs.SameInode(item.Stat, dstStat) {
				res := j.callbacks.renameDestinationAlreadyExists(item.SrcPath, item.DstPath, dstStat)
				switch res {
				case RenameExistsOverwrite, RenameExistsOverwriteOld:
					if res == RenameExistsOverwriteOld && !item.Stat.MTime.After(dstStat.MTime) {
						j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
						return nil
					}
					// The destination directory already exists and wins
					// the merge, so the source directory is never
					// renamed onto it; mark it NeedsToBeDeleted so
					// cleanup walks it away once its (already scanned)
					// children have been moved or deleted themselves.
					j.markNeedsDelete(item)
					j.copyAttributesOnly(ctx, item)
					return nil
				case RenameExistsSkip:
					j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
					return nil
				default:
					j.job.Stop()
					return nil
				}
			}
		}
		if err := item.SrcHost.Rename(ctx, item.SrcPath, item.DstPath); err != nil {
			return j.handleDeleteDestErr(item.DstPath, err)
		}
		j.commitItem(item)
		return nil
	}

	if exists {
		j.copyAttributesOnly(ctx, item)
		return nil
	}
	if err := j.mkdirAllOn(ctx, item.DstHost, item.DstPath); err != nil {
		return err
	}
	j.applyDirAttributes(ctx, item)
	j.commitItem(item)
	return nil
}

func (j *CopyingJob) mkdirAllOn(ctx context.Context, host vfs.Host, dir string) error {
	if dir == "." || dir == "/" || host.Exists(ctx, dir) {
		return nil
	}
	if err := j.mkdirAllOn(ctx, host, path.Dir(dir)); err != nil {
		return err
	}
	if err := host.CreateDirectory(ctx, dir, 0755); err != nil {
		res := j.callbacks.cantCreateDestinationDir(dir, err, false)
		switch res {
		case CreateDirSkip:
			return nil
		default:
			j.job.Stop()
			return err
		}
	}
	return nil
}

func (j *CopyingJob) applyDirAttributes(ctx context.Context, item scanItem) {
	host := item.DstHost
	if item.Stat.Meaning.Has(vfs.MeaningMode) {
		_ = host.SetPermissions(ctx, item.DstPath, item.Stat.Mode.Perm())
	}
	if j.opts.CopyUnixOwners && item.Stat.Meaning.Has(vfs.MeaningUID) {
		_ = host.SetOwnership(ctx, item.DstPath, item.Stat.UID, item.Stat.GID)
	}
	if j.opts.CopyXAttrs {
		j.copyXAttrs(ctx, item.SrcHost, item.SrcPath, host, item.DstPath)
	}
	if j.opts.CopyUnixFlags && item.Stat.Meaning.Has(vfs.MeaningFlags) {
		_ = host.SetFlags(ctx, item.DstPath, item.Stat.Flags, false)
	}
	if j.opts.CopyFileTimes {
		_ = host.SetTimes(ctx, item.DstPath, item.Stat.ATime, item.Stat.MTime)
	}
}

func (j *CopyingJob) copyAttributesOnly(ctx context.Context, item scanItem) {
	j.applyDirAttributes(ctx, item)
	j.commitItem(item)
}

func (j *CopyingJob) commitItem(item scanItem) {
	j.job.Stats.Items.CommitProcessed(time.Now(), 1)
	j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemProcessed)
}

func (j *CopyingJob) resolveNotADirStop(res NotADirectoryResolution, path string) error {
	if res == NotADirSkip {
		return nil
	}
	j.job.Stop()
	return vfs.NewError(path, vfs.CodeNotADirectory)
}

func (j *CopyingJob) handleDeleteDestErr(path string, err error) error {
	switch j.callbacks.cantDeleteDestination(path, err) {
	case DeleteSkip:
		return nil
	default:
		j.job.Stop()
		return err
	}
}

// processSymlink implements spec.md §4.6 "Symlinks".
func (j *CopyingJob) processSymlink(ctx context.Context, item scanItem) error {
	value, err := item.SrcHost.ReadSymlink(ctx, item.SrcPath)
	if err != nil {
		return j.handleAccessError(item.SrcPath, err)
	}

	if item.DstHost.Exists(ctx, item.DstPath) {
		dstStat, statErr := item.DstHost.Stat(ctx, item.DstPath, vfs.FNoFollow)
		if statErr == nil && !vfs.SameInode(item.Stat, dstStat) {
			res := j.callbacks.copyDestinationAlreadyExists(item.Stat, item.DstPath, dstStat)
			switch res {
			case ExistsSkip:
				j.job.ReportItem(item.SrcHost, item.SrcPath, ops.ItemSkipped)
				return nil
			case ExistsStop:
				j.job.Stop()
				return nil
			}
			if err := item.DstHost.Trash(ctx, item.DstPath); err != nil {
				_ = item.DstHost.Unlink(ctx, item.DstPath)
			}
		}
	}

	if err := item.DstHost.CreateSymlink(ctx, item.DstPath, value); err != nil {
		return j.handleDeleteDestErr(item.DstPath, err)
	}
	if j.canRename(item) {
		_ = item.SrcHost.Unlink(ctx, item.SrcPath)
	}
	j.commitItem(item)
	return nil
}
