package copying

import (
	"context"
	"path"
	"strings"

	"github.com/corefs/engine/vfs"
)

// scanSourceItems walks every source item (spec.md §4.6 "Scanning"),
// committing each regular file/symlink/directory into j.scanned and
// feeding estimates into the job's Statistics.
func (j *CopyingJob) scanSourceItems(ctx context.Context) error {
	for idx, src := range j.sources {
		if j.checkpoint() {
			return nil
		}
		if err := j.scanOne(ctx, idx, src); err != nil {
			return err
		}
	}
	return nil
}

func (j *CopyingJob) scanOne(ctx context.Context, idx int, src Source) error {
	st, err := src.Host.Stat(ctx, src.Path, vfs.FNoFollow)
	if err != nil {
		return j.handleAccessError(src.Path, err)
	}

	rel := path.Base(src.Path)
	dstPath := j.destinationPathFor(rel)

	switch {
	case st.Mode.IsSymlink() && j.opts.PreserveSymlinks:
		j.scanned = append(j.scanned, scanItem{SourceIndex: idx, scanIndex: len(j.scanned), SrcHost: src.Host, SrcPath: src.Path, DstHost: j.dstHost, DstPath: dstPath, Stat: st})
		j.job.Stats.Items.CommitEstimated(1)
	case st.Mode.IsDir():
		j.scanned = append(j.scanned, scanItem{SourceIndex: idx, scanIndex: len(j.scanned), SrcHost: src.Host, SrcPath: src.Path, DstHost: j.dstHost, DstPath: dstPath, Stat: st, IsParentDir: true})
		j.job.Stats.Items.CommitEstimated(1)
		if j.shouldRecurseInto(ctx, src, dstPath) {
			return j.scanDir(ctx, idx, src.Host, src.Path, dstPath)
		}
	default:
		j.scanned = append(j.scanned, scanItem{SourceIndex: idx, scanIndex: len(j.scanned), SrcHost: src.Host, SrcPath: src.Path, DstHost: j.dstHost, DstPath: dstPath, Stat: st})
		j.job.Stats.Items.CommitEstimated(1)
		j.job.Stats.Bytes.CommitEstimated(int64(st.Size))
	}
	return nil
}

// shouldRecurseInto implements spec.md §4.6 "recurses only when the
// copy semantics require entering the directory": copying, or moving
// across hosts, or moving across volumes on the same native host, or a
// same-name destination already exists at the top level.
func (j *CopyingJob) shouldRecurseInto(ctx context.Context, src Source, dstPath string) bool {
	if j.opts.DoCopy {
		return true
	}
	if src.Host.Tag() != j.dstHost.Tag() {
		return true
	}
	if src.Host.IsNativeFS() {
		srcStat, _ := src.Host.Stat(ctx, src.Path, vfs.FNoFollow)
		if j.dstHost.Exists(ctx, path.Dir(dstPath)) {
			dirStat, err := j.dstHost.Stat(ctx, path.Dir(dstPath), vfs.FNoFollow)
			if err == nil && srcStat.Meaning.Has(vfs.MeaningDev) && dirStat.Meaning.Has(vfs.MeaningDev) && srcStat.Dev != dirStat.Dev {
				return true
			}
		}
	}
	if j.dstHost.Exists(ctx, dstPath) {
		return true
	}
	return false
}

func (j *CopyingJob) scanDir(ctx context.Context, idx int, host vfs.Host, srcDir, dstDir string) error {
	var entries []vfs.ListingItem
	err := host.IterateDirectoryListing(ctx, srcDir, func(item vfs.ListingItem) error {
		if j.isXAttrSidecar(ctx, host, srcDir, item) {
			return nil
		}
		entries = append(entries, item)
		return nil
	})
	if err != nil {
		return j.handleAccessError(srcDir, err)
	}

	for _, item := range entries {
		if j.checkpoint() {
			return nil
		}
		childSrc := path.Join(srcDir, item.Filename)
		childDst := path.Join(dstDir, item.Filename)
		st, err := host.Stat(ctx, childSrc, vfs.FNoFollow)
		if err != nil {
			if res := j.handleAccessError(childSrc, err); res != nil {
				return res
			}
			continue
		}
		switch {
		case st.Mode.IsSymlink() && j.opts.PreserveSymlinks:
			j.scanned = append(j.scanned, scanItem{SourceIndex: idx, scanIndex: len(j.scanned), SrcHost: host, SrcPath: childSrc, DstHost: j.dstHost, DstPath: childDst, Stat: st})
			j.job.Stats.Items.CommitEstimated(1)
		case st.Mode.IsDir():
			j.scanned = append(j.scanned, scanItem{SourceIndex: idx, scanIndex: len(j.scanned), SrcHost: host, SrcPath: childSrc, DstHost: j.dstHost, DstPath: childDst, Stat: st, IsParentDir: true})
			j.job.Stats.Items.CommitEstimated(1)
			if err := j.scanDir(ctx, idx, host, childSrc, childDst); err != nil {
				return err
			}
		default:
			j.scanned = append(j.scanned, scanItem{SourceIndex: idx, scanIndex: len(j.scanned), SrcHost: host, SrcPath: childSrc, DstHost: j.dstHost, DstPath: childDst, Stat: st})
			j.job.Stats.Items.CommitEstimated(1)
			j.job.Stats.Bytes.CommitEstimated(int64(st.Size))
		}
	}
	return nil
}

// isXAttrSidecar detects the AppleDouble-style "._X" sidecar files
// skipped on native volumes that lack xattr support when a sibling X
// exists (spec.md §4.6 "Scanning").
func (j *CopyingJob) isXAttrSidecar(ctx context.Context, host vfs.Host, dir string, item vfs.ListingItem) bool {
	if !host.IsNativeFS() || host.Features().Has(vfs.FeatureXAttrs) {
		return false
	}
	if !strings.HasPrefix(item.Filename, "._") {
		return false
	}
	sibling := path.Join(dir, item.Filename[2:])
	return host.Exists(ctx, sibling)
}

// handleAccessError routes a scan-time stat/iterate failure through
// OnCantAccessSourceItem (spec.md §4.6). Returning nil means "skip and
// keep scanning"; a non-nil error means the job should stop. Retry is
// handled exactly like Skip: the failed item is not attempted again.
func (j *CopyingJob) handleAccessError(path string, err error) error {
	switch j.callbacks.cantAccessSourceItem(path, err) {
	case AccessRetry, AccessSkip:
		return nil
	default:
		j.job.Stop()
		return err
	}
}
