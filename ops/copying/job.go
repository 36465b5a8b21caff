package copying

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
)

// Stage is one of the five CopyingJob stages (spec.md §4.6).
type Stage int

const (
	StagePreparing Stage = iota
	StageProcess
	StageVerify
	StageCleaning
	StageDefault
)

// Composition describes how the final destination path for each source
// item was derived (spec.md §4.6 "Path composition").
type Composition int

const (
	CompositionPathPrefix Composition = iota
	CompositionFixedPath
)

// Source is one top-level item the caller asked to copy/move.
type Source struct {
	Host vfs.Host
	Path string
}

type source = Source

// ChecksumExpectation records the MD5 a copied file must match during
// the Verify stage (spec.md §4.6 "Checksum hook").
type ChecksumExpectation struct {
	SourceIndex     int
	DestinationPath string
	DestinationHost vfs.Host
	MD5             [16]byte
}

// scanItem is one entry produced by ScanSourceItems.
type scanItem struct {
	SourceIndex int
	scanIndex   int // this item's own position in j.scanned
	SrcHost     vfs.Host
	SrcPath     string
	DstHost     vfs.Host
	DstPath     string
	Stat        vfs.Stat
	IsParentDir bool // a directory inserted without recursing into it
	needsDelete bool // source marked for deletion post-rename-overwrite
}

// markNeedsDelete flags the stored scan entry backing item for deletion
// during cleanup. item is handled throughout process/engine by value, so
// the flag must be written back through scanIndex rather than on the
// caller's copy.
func (j *CopyingJob) markNeedsDelete(item scanItem) {
	j.scanned[item.scanIndex].needsDelete = true
}

// CopyingJob implements ops.Performer for the copy/move/rename family
// (spec.md §4.6). It executes Preparing -> Process -> (Verify) ->
// (Cleaning) -> Default.
type CopyingJob struct {
	sources   []source
	dstHost   vfs.Host
	dstPath   string
	opts      Options
	callbacks *Callbacks

	composition Composition
	caseRename  bool

	scanned    []scanItem
	checksums  []ChecksumExpectation
	stage      Stage
	verificationFailed bool

	job *ops.Job
}

// New constructs a CopyingJob. dstPath must be absolute; construction
// panics otherwise, mirroring spec.md §7 "destination path that is not
// absolute in CopyingJob" (a programmer-contract violation, not a
// runtime resolution).
func New(sources []Source, dstHost vfs.Host, dstPath string, opts Options, callbacks *Callbacks) *CopyingJob {
	if !path.IsAbs(dstPath) {
		panic(fmt.Sprintf("copying: destination path %q is not absolute", dstPath))
	}
	return &CopyingJob{
		sources:   sources,
		dstHost:   dstHost,
		dstPath:   dstPath,
		opts:      opts,
		callbacks: callbacks,
	}
}

// Title renders the job's display title from its source/destination set
// (original_source's CopyingTitleBuilder, supplemented in SPEC_FULL
// §3.1).
func (j *CopyingJob) Title() string {
	verb := "Copying"
	if !j.opts.DoCopy {
		verb = "Moving"
	}
	switch len(j.sources) {
	case 0:
		return verb
	case 1:
		return fmt.Sprintf("%s %q to %q", verb, path.Base(j.sources[0].Path), j.dstPath)
	default:
		return fmt.Sprintf("%s %d items to %q", verb, len(j.sources), j.dstPath)
	}
}

func (j *CopyingJob) setStage(s Stage) {
	j.stage = s
	j.callbacks.stageChanged(s)
}

// Perform runs the full pipeline; it is the ops.Performer entry point
// invoked by Job.Run on the worker goroutine.
func (j *CopyingJob) Perform(job *ops.Job) error {
	j.job = job
	ctx := context.Background()

	j.setStage(StagePreparing)
	if err := j.prepare(ctx); err != nil {
		return err
	}
	job.BlockIfPaused()
	if job.IsStopped() {
		return nil
	}

	j.setStage(StageProcess)
	if err := j.process(ctx); err != nil {
		return err
	}
	if job.IsStopped() {
		return nil
	}

	if len(j.checksums) > 0 {
		j.setStage(StageVerify)
		j.verify(ctx)
		if job.IsStopped() {
			return nil
		}
	}

	j.setStage(StageCleaning)
	j.cleanup(ctx)

	j.setStage(StageDefault)
	return nil
}

// prepare performs path composition (spec.md §4.6 "Path composition")
// and detects the case-rename-only fast path, then scans source items.
func (j *CopyingJob) prepare(ctx context.Context) error {
	dstExists := j.dstHost.Exists(ctx, j.dstPath)
	var dstIsDir bool
	if dstExists {
		st, err := j.dstHost.Stat(ctx, j.dstPath, 0)
		if err == nil {
			dstIsDir = st.Mode.IsDir()
		}
	}

	j.caseRename = j.detectCaseRenameOnly(ctx)

	switch {
	case dstExists && dstIsDir && !j.caseRename:
		j.composition = CompositionPathPrefix
	case dstExists && !dstIsDir:
		j.composition = CompositionFixedPath
	default: // !dstExists
		if err := j.ensureParents(ctx); err != nil {
			return err
		}
		if strings.HasSuffix(j.dstPath, "/") || len(j.sources) > 1 {
			j.composition = CompositionPathPrefix
		} else {
			j.composition = CompositionFixedPath
		}
	}

	return j.scanSourceItems(ctx)
}

// detectCaseRenameOnly implements spec.md §4.6 "Case-renaming-only
// detection": single source directory, same host as destination,
// identical inode on native FS or case-insensitive host with
// lowercase-equal paths.
func (j *CopyingJob) detectCaseRenameOnly(ctx context.Context) bool {
	if len(j.sources) != 1 {
		return false
	}
	src := j.sources[0]
	if src.Host.Tag() != j.dstHost.Tag() {
		return false
	}
	srcStat, err := src.Host.Stat(ctx, src.Path, vfs.FNoFollow)
	if err != nil || !srcStat.Mode.IsDir() {
		return false
	}
	if src.Host.IsNativeFS() && j.dstHost.Exists(ctx, j.dstPath) {
		dstStat, err := j.dstHost.Stat(ctx, j.dstPath, vfs.FNoFollow)
		if err == nil && vfs.SameInode(srcStat, dstStat) {
			return true
		}
	}
	if !src.Host.IsCaseSensitiveAtPath(ctx, j.dstPath) {
		return strings.EqualFold(src.Path, j.dstPath)
	}
	return false
}

func (j *CopyingJob) ensureParents(ctx context.Context) error {
	parent := path.Dir(j.dstPath)
	if parent == "." || parent == "/" || j.dstHost.Exists(ctx, parent) {
		return nil
	}
	if err := j.mkdirAll(ctx, parent); err != nil {
		for {
			res := j.callbacks.cantCreateDestinationDir(parent, err, true)
			switch res {
			case CreateDirRetry:
				if err = j.mkdirAll(ctx, parent); err == nil {
					return nil
				}
				continue
			case CreateDirSkip:
				return nil
			default:
				j.job.Stop()
				return err
			}
		}
	}
	return nil
}

func (j *CopyingJob) mkdirAll(ctx context.Context, dir string) error {
	if dir == "." || dir == "/" || j.dstHost.Exists(ctx, dir) {
		return nil
	}
	if err := j.mkdirAll(ctx, path.Dir(dir)); err != nil {
		return err
	}
	return j.dstHost.CreateDirectory(ctx, dir, 0755)
}

// destinationPathFor composes the final destination path for a scanned
// source item, per the chosen Composition.
func (j *CopyingJob) destinationPathFor(relPath string) string {
	if j.composition == CompositionFixedPath {
		return j.dstPath
	}
	return path.Join(j.dstPath, relPath)
}

// checkpoint is a small helper jobs call between items to honour
// Pause/Stop between atomic steps (spec.md §4.3).
func (j *CopyingJob) checkpoint() bool {
	j.job.BlockIfPaused()
	return j.job.IsStopped()
}
