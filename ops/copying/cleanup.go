package copying

import "context"

// cleanup implements spec.md §4.6 "Cleanup transitions on success
// delete the source items in reverse scan order (children before
// parents)". A failed verification suppresses cleanup entirely so a
// corrupted copy never causes data loss on the source side.
func (j *CopyingJob) cleanup(ctx context.Context) {
	if j.verificationFailed {
		return
	}
	if j.opts.DoCopy {
		return
	}
	for i := len(j.scanned) - 1; i >= 0; i-- {
		if j.checkpoint() {
			return
		}
		item := j.scanned[i]
		if !item.needsDelete && !j.canRename(item) {
			continue
		}
		// Same-host renames already moved the item; nothing left to
		// delete on the source side. Only cross-host moves and
		// rename-onto-existing-directory (needsDelete) require an
		// explicit delete here.
		if j.canRename(item) && !item.needsDelete {
			continue
		}
		var err error
		if item.Stat.Mode.IsDir() {
			err = item.SrcHost.RemoveDirectory(ctx, item.SrcPath)
		} else {
			err = item.SrcHost.Unlink(ctx, item.SrcPath)
		}
		if err != nil {
			switch j.callbacks.cantDeleteSource(item.SrcPath, err) {
			case DeleteRetry, DeleteSkip:
				continue
			default:
				j.job.Stop()
				return
			}
		}
	}
}
