package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/ops/deletion"
	"github.com/corefs/engine/vfs/adapter/nativefs"
)

var trashFlag bool

var deleteCommand = &cobra.Command{
	Use:   "delete path...",
	Short: "Delete files and directories, to Trash by default",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host := nativefs.New("local")
		var items []deletion.Item
		for _, p := range args {
			items = append(items, deletion.Item{Host: host, Path: p})
		}

		opts := deletion.Options{Type: deletion.Trash}
		if !trashFlag {
			opts.Type = deletion.Permanent
		}

		dj := deletion.New(items, opts, &deletion.Callbacks{})
		job := ops.NewJob(dj, time.Now(), dj.Title())
		return runJob(job)
	},
}

func init() {
	deleteCommand.Flags().BoolVar(&trashFlag, "trash", true, "move to Trash instead of deleting permanently")
	Root.AddCommand(deleteCommand)
}
