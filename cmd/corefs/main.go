// Command corefs is a thin demonstration binary over the engine
// library: it constructs Operations from the ops/* jobs, enqueues them
// on a Pool, and prints progress, the way rclone's cmd/ binary drives
// its fs.Fs operations from cobra subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
