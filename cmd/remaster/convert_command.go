package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"remaster/internal/config"
	"remaster/internal/deps"
	"remaster/internal/journal"
	"remaster/internal/logging"
	"remaster/internal/pipeline"
	"remaster/internal/services"
	"remaster/internal/watch"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var overwrite bool
	var watchMode bool
	var sourceDir string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert every eligible source file into the encoded mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Precondition failures here are fatal (exit 2), not per-file
			// failures, so every error carries the configuration marker.
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "convert", "load config", "", err)
			}
			if err := applyRootOverrides(cfg, sourceDir, outputDir); err != nil {
				return services.Wrap(services.ErrConfiguration, "convert", "resolve roots", "", err)
			}
			if err := cfg.Validate(); err != nil {
				return services.Wrap(services.ErrConfiguration, "convert", "validate config", "", err)
			}
			if !dryRun {
				if err := cfg.EnsureDirectories(); err != nil {
					return services.Wrap(services.ErrConfiguration, "convert", "create directories", "", err)
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "convert", "open log output", "", err)
			}
			caps := deps.Probe(cfg)

			opts := []pipeline.Option{
				pipeline.WithDryRun(dryRun),
				pipeline.WithOverwrite(overwrite),
			}
			// Dry runs are journaled too; the runs table keeps their
			// dry_run flag so history shows what was simulated.
			store, err := journal.Open(cmd.Context(), cfg.Paths.JournalPath)
			if err != nil {
				logger.Warn("journal unavailable; run history will not be recorded", "error", err)
			} else {
				defer store.Close()
				opts = append(opts, pipeline.WithJournal(store))
			}

			runner := pipeline.New(cfg, caps, logger, opts...)

			if watchMode {
				return runWatch(cmd.Context(), cfg, logger, runner)
			}

			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd, summary, dryRun)
			if summary.Failed > 0 {
				return fmt.Errorf("%d conversion(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Log planned work without invoking tools or writing output")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Re-encode files whose destination already exists")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Keep running and convert as new source files appear")
	cmd.Flags().StringVar(&sourceDir, "source", "", "Override the configured source root")
	cmd.Flags().StringVar(&outputDir, "output", "", "Override the configured output root")
	return cmd
}

func applyRootOverrides(cfg *config.Config, sourceDir, outputDir string) error {
	if sourceDir != "" {
		expanded, err := config.ExpandPath(sourceDir)
		if err != nil {
			return fmt.Errorf("resolve source root: %w", err)
		}
		cfg.Paths.SourceDir = expanded
	}
	if outputDir != "" {
		expanded, err := config.ExpandPath(outputDir)
		if err != nil {
			return fmt.Errorf("resolve output root: %w", err)
		}
		cfg.Paths.OutputDir = expanded
	}
	return nil
}

// runWatch performs an initial conversion pass, then reruns the pipeline
// whenever the source tree changes, until interrupted. Runs are serialized so
// a change burst never contends on the run lock.
func runWatch(parent context.Context, cfg *config.Config, logger *slog.Logger, runner *pipeline.Runner) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runMu sync.Mutex
	runOnce := func(ctx context.Context) {
		runMu.Lock()
		defer runMu.Unlock()
		summary, err := runner.Run(ctx)
		if err != nil {
			logger.Error("watch run failed", "error", err)
			return
		}
		if summary.Failed > 0 {
			logger.Error("watch run completed with failures", "failed", summary.Failed)
		}
	}

	runOnce(ctx)

	watcher := watch.New(
		cfg.Paths.SourceDir,
		cfg.Encoding.SourceExtension,
		time.Duration(cfg.Watch.DebounceMS)*time.Millisecond,
		logger,
		runOnce,
	)
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary pipeline.Summary, dryRun bool) {
	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, "Dry run; no files were written.")
	}
	fmt.Fprintf(out, "Total sources:  %d\n", summary.Total)
	if dryRun {
		fmt.Fprintf(out, "Would convert:  %d\n", summary.Simulated)
	} else {
		fmt.Fprintf(out, "Converted:      %d\n", summary.Converted)
	}
	if summary.SplitImages > 0 {
		fmt.Fprintf(out, "Split images:   %d (%d tracks)\n", summary.SplitImages, summary.SplitTracks)
	}
	fmt.Fprintf(out, "Skipped:        %d\n", summary.Skipped)
	fmt.Fprintf(out, "Failed:         %d\n", summary.Failed)
}
