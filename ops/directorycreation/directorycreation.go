// Package directorycreation implements DirectoryCreationJob (spec.md
// §4.8): splits a slash-separated name and walks parents, creating
// whichever don't already exist.
package directorycreation

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
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

// DirectoryCreationJob implements ops.Performer.
type DirectoryCreationJob struct {
	host      vfs.Host
	base      string
	name      string
	mode      vfs.Mode
	callbacks *Callbacks
	job       *ops.Job
}

// New creates a job that builds base/name, splitting name on '/' and
// creating each missing parent in turn.
func New(host vfs.Host, base, name string, mode vfs.Mode, callbacks *Callbacks) *DirectoryCreationJob {
	return &DirectoryCreationJob{host: host, base: base, name: strings.Trim(name, "/"), mode: mode, callbacks: callbacks}
}

func (j *DirectoryCreationJob) Title() string { return "Creating directory " + j.name }

func (j *DirectoryCreationJob) Perform(job *ops.Job) error {
	j.job = job
	ctx := context.Background()

	parts := strings.Split(j.name, "/")
	job.Stats.Items.CommitEstimated(int64(len(parts)))

	dir := j.base
	for _, part := range parts {
		job.BlockIfPaused()
		if job.IsStopped() {
			return nil
		}
		dir = path.Join(dir, part)
		if err := j.createOne(ctx, dir); err != nil {
			return err
		}
	}
	return nil
}

func (j *DirectoryCreationJob) createOne(ctx context.Context, dir string) error {
	if j.host.Exists(ctx, dir) {
		st, err := j.host.Stat(ctx, dir, 0)
		if err == nil && !st.Mode.IsDir() {
			// EEXIST on a non-directory is fatal (spec.md §4.8).
			j.job.Stop()
			return vfs.NewError(dir, vfs.CodeNotADirectory)
		}
		j.job.Stats.Items.CommitProcessed(time.Now(), 1)
		j.job.ReportItem(j.host, dir, ops.ItemSkipped)
		return nil
	}
	if err := j.host.CreateDirectory(ctx, dir, j.mode); err != nil {
		switch j.callbacks.onError(dir, err) {
		case ResolutionSkip:
			j.job.Stats.Items.CommitSkipped(1)
			return nil
		case ResolutionRetry:
			return j.createOne(ctx, dir)
		default:
			j.job.Stop()
			return err
		}
	}
	j.job.Stats.Items.CommitProcessed(time.Now(), 1)
	j.job.ReportItem(j.host, dir, ops.ItemProcessed)
	return nil
}
