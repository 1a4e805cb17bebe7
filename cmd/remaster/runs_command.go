package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"remaster/internal/journal"
)

const runTimeFormat = "2006-01-02 15:04:05"

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(cmd, func(store *journal.Store) error {
				runs, err := store.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						formatRunTime(run.StartedAt),
						yesNo(run.DryRun),
						strconv.Itoa(run.Converted),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.Failed),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Started", "Dry-run", "Converted", "Skipped", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	runsCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-file outcomes of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(cmd, func(store *journal.Store) error {
				files, err := store.FilesForRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No files recorded for run %s.\n", args[0])
					return nil
				}

				rows := make([][]string, 0, len(files))
				for _, file := range files {
					tracks := ""
					if file.Tracks > 0 {
						tracks = strconv.Itoa(file.Tracks)
					}
					rows = append(rows, []string{file.Outcome, tracks, file.SourcePath, file.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Outcome", "Tracks", "Source", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func (c *commandContext) withJournal(cmd *cobra.Command, fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cmd.Context(), cfg.Paths.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(runTimeFormat)
}
