package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/ops/copying"
	"github.com/corefs/engine/vfs/adapter/nativefs"
)

var moveFlag bool

var copyCommand = &cobra.Command{
	Use:   "copy source... destination",
	Short: "Copy (or, with --move, move) files and directories into destination",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := args[len(args)-1]
		srcPaths := args[:len(args)-1]

		host := nativefs.New("local")
		var sources []copying.Source
		for _, p := range srcPaths {
			sources = append(sources, copying.Source{Host: host, Path: p})
		}

		opts := copying.DefaultOptions()
		opts.DoCopy = !moveFlag
		cj := copying.New(sources, host, dest, opts, &copying.Callbacks{})
		job := ops.NewJob(cj, time.Now(), cj.Title())
		return runJob(job)
	},
}

func init() {
	copyCommand.Flags().BoolVar(&moveFlag, "move", false, "move instead of copy")
	Root.AddCommand(copyCommand)
}

func runJob(j *ops.Job) error {
	log := logrus.WithField("title", j.Title())
	op := ops.NewOperation(j, log)
	pool := ops.NewPool(concurrency, nil)
	pool.Enqueue(op, ops.KindCopying)

	done := make(chan struct{})
	go func() {
		op.Wait(-1)
		close(done)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Printf("\r%s: %s", j.Title(), j.Stats.PreferredSource().String())
		case <-done:
			fmt.Println()
			return j.Err()
		}
	}
}
