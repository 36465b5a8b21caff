// Package batchrenaming implements BatchRenamingJob (spec.md §4.8):
// renames parallel src/dst path arrays on a single host.
package batchrenaming

import (
	"context"
	"fmt"
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
	OnError func(src, dst string, err error) Resolution
}

func (c *Callbacks) onError(src, dst string, err error) Resolution {
	if c == nil || c.OnError == nil {
		return ResolutionStop
	}
	return c.OnError(src, dst, err)
}

// BatchRenamingJob implements ops.Performer.
type BatchRenamingJob struct {
	host      vfs.Host
	src, dst  []string
	callbacks *Callbacks
	job       *ops.Job
}

// New constructs a BatchRenamingJob. Mismatched vector sizes are a
// programmer-contract violation (spec.md §7) and panic at construction.
func New(host vfs.Host, src, dst []string, callbacks *Callbacks) *BatchRenamingJob {
	if len(src) != len(dst) {
		panic(fmt.Sprintf("batchrenaming: mismatched vector sizes (%d src, %d dst)", len(src), len(dst)))
	}
	return &BatchRenamingJob{host: host, src: src, dst: dst, callbacks: callbacks}
}

func (j *BatchRenamingJob) Title() string { return fmt.Sprintf("Renaming %d items", len(j.src)) }

func (j *BatchRenamingJob) checkpoint() bool {
	j.job.BlockIfPaused()
	return j.job.IsStopped()
}

func (j *BatchRenamingJob) Perform(job *ops.Job) error {
	j.job = job
	ctx := context.Background()
	job.Stats.Items.CommitEstimated(int64(len(j.src)))

	for i := range j.src {
		if j.checkpoint() {
			return nil
		}
		if err := j.renameOne(ctx, j.src[i], j.dst[i]); err != nil {
			return err
		}
	}
	return nil
}

func (j *BatchRenamingJob) renameOne(ctx context.Context, src, dst string) error {
	if src == dst {
		job := j.job
		job.Stats.Items.CommitProcessed(time.Now(), 1)
		job.ReportItem(j.host, src, ops.ItemSkipped)
		return nil
	}
	if j.host.Exists(ctx, dst) && !lowercaseEqual(src, dst) {
		return j.handleErr(src, dst, vfs.NewError(dst, vfs.CodeAlreadyExists))
	}
	if err := j.host.Rename(ctx, src, dst); err != nil {
		return j.handleErr(src, dst, err)
	}
	j.job.Stats.Items.CommitProcessed(time.Now(), 1)
	j.job.ReportItem(j.host, dst, ops.ItemProcessed)
	return nil
}

func lowercaseEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

func (j *BatchRenamingJob) handleErr(src, dst string, err error) error {
	switch j.callbacks.onError(src, dst, err) {
	case ResolutionSkip:
		j.job.Stats.Items.CommitSkipped(1)
		return nil
	case ResolutionRetry:
		return j.renameOne(context.Background(), src, dst)
	default:
		j.job.Stop()
		return err
	}
}
