package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"remaster/internal/deps"
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

func newToolsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show the availability of every configured external tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			caps := deps.Probe(cfg)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			rows := make([][]string, 0, 4)
			for _, status := range caps.List() {
				available := yesNo(status.Available)
				if colorize {
					if status.Available {
						available = ansiGreen + available + ansiReset
					} else {
						available = ansiRed + available + ansiReset
					}
				}
				detail := status.Detail
				if status.Available {
					detail = ""
				}
				rows = append(rows, []string{status.Name, status.Command, available, detail})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Command", "Available", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if !caps.Encoder.Available {
				fmt.Fprintln(out, "The encoder is required; conversion runs will refuse to start without it.")
			}
			if !caps.CanSplit() {
				fmt.Fprintln(out, "Cue album images will be converted whole until the splitter is installed.")
			}
			if !caps.CanTag() {
				fmt.Fprintln(out, "Tags and artwork will not be propagated; both tag tools must be available.")
			}
			return nil
		},
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
