package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corefs/engine/term"
)

var (
	termWidth  int
	termHeight int
)

var termCommand = &cobra.Command{
	Use:   "term [file]",
	Short: "Run a byte stream through the terminal emulator core and print the resulting screen",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		screen := term.NewScreen(termWidth, termHeight, term.Cell{Char: ' '}, 1000)
		interp := term.NewInterpreter(screen, term.Callbacks{
			Output: func(b []byte) {}, // no PTY to write replies back to
			Bell:   func() { fmt.Fprint(os.Stderr, "\a") },
		})
		parser := term.NewParser()

		buf := make([]byte, 4096)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				interp.Feed(parser.Feed(buf[:n]))
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
		interp.Feed(parser.Flush())

		printScreen(screen)
		return nil
	},
}

func init() {
	termCommand.Flags().IntVar(&termWidth, "cols", 80, "screen width")
	termCommand.Flags().IntVar(&termHeight, "rows", 24, "screen height")
	Root.AddCommand(termCommand)
}

func printScreen(s *term.Screen) {
	buf := s.Buffer()
	reg := term.GlobalRegistry()
	var sb strings.Builder
	for y := 0; y < buf.Height(); y++ {
		line := buf.Line(y)
		for _, cell := range line {
			if cell.Char == 0 {
				sb.WriteRune(' ')
				continue
			}
			if term.IsExtended(cell.Char) {
				sb.WriteString(reg.Decode(cell.Char))
				continue
			}
			sb.WriteRune(rune(cell.Char))
		}
		sb.WriteByte('\n')
	}
	fmt.Print(sb.String())
}
