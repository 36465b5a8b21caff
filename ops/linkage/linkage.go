// Package linkage implements LinkageJob (spec.md §4.8): create a
// symlink, alter an existing symlink's target, or create a hardlink
// (native only).
package linkage

import (
	"context"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
)

// Kind selects the linkage operation.
type Kind int

const (
	CreateSymlink Kind = iota
	AlterSymlink
	CreateHardlink
)

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

// LinkageJob implements ops.Performer.
type LinkageJob struct {
	host      vfs.Host
	kind      Kind
	linkPath  string
	target    string // symlink value, or existing path for hardlinks
	callbacks *Callbacks
	job       *ops.Job
}

// New constructs a LinkageJob. An empty link path is a programmer
// contract violation (spec.md §7) and panics at construction.
func New(host vfs.Host, kind Kind, linkPath, target string, callbacks *Callbacks) *LinkageJob {
	if linkPath == "" {
		panic("linkage: empty link path")
	}
	return &LinkageJob{host: host, kind: kind, linkPath: linkPath, target: target, callbacks: callbacks}
}

func (j *LinkageJob) Title() string {
	switch j.kind {
	case AlterSymlink:
		return "Altering symlink " + j.linkPath
	case CreateHardlink:
		return "Creating hardlink " + j.linkPath
	default:
		return "Creating symlink " + j.linkPath
	}
}

func (j *LinkageJob) Perform(job *ops.Job) error {
	j.job = job
	ctx := context.Background()
	job.Stats.Items.CommitEstimated(1)

	var err error
	switch j.kind {
	case CreateSymlink:
		err = j.host.CreateSymlink(ctx, j.linkPath, j.target)
	case AlterSymlink:
		err = j.alterSymlink(ctx)
	case CreateHardlink:
		if !j.host.IsNativeFS() {
			err = vfs.NewError(j.linkPath, vfs.CodeNotSupported)
		} else {
			err = j.host.CreateHardlink(ctx, j.linkPath, j.target)
		}
	}

	if err != nil {
		switch j.callbacks.onError(j.linkPath, err) {
		case ResolutionSkip:
			job.Stats.Items.CommitSkipped(1)
			return nil
		case ResolutionRetry:
			return j.Perform(job)
		default:
			job.Stop()
			return err
		}
	}

	job.Stats.Items.CommitProcessed(time.Now(), 1)
	job.ReportItem(j.host, j.linkPath, ops.ItemProcessed)
	return nil
}

// alterSymlink implements "stat + unlink + symlink" (spec.md §4.8).
func (j *LinkageJob) alterSymlink(ctx context.Context) error {
	if _, err := j.host.Stat(ctx, j.linkPath, vfs.FNoFollow); err != nil {
		return err
	}
	if err := j.host.Unlink(ctx, j.linkPath); err != nil {
		return err
	}
	return j.host.CreateSymlink(ctx, j.linkPath, j.target)
}
