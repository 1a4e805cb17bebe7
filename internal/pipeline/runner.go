package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"remaster/internal/config"
	"remaster/internal/deps"
	"remaster/internal/journal"
	"remaster/internal/layout"
	"remaster/internal/scan"
	"remaster/internal/services"
	"remaster/internal/tags"
	"remaster/internal/transcode"
)

// Summary aggregates one run's results. Failed counts individual failed
// conversions, split tracks included; the run as a whole failed iff it is
// non-zero.
type Summary struct {
	RunID       string
	Total       int
	Converted   int
	Skipped     int
	Simulated   int
	SplitImages int
	SplitTracks int
	Failed      int
}

// Runner executes one conversion run. Construct with New; immutable afterwards.
type Runner struct {
	cfg      *config.Config
	caps     deps.Capabilities
	mapper   layout.Mapper
	encoder  *transcode.Encoder
	splitter *transcode.Splitter
	store    *journal.Store
	logger   *slog.Logger
	dryRun   bool
	workers  int
}

// Option configures the runner.
type Option func(*options)

type options struct {
	dryRun    bool
	overwrite bool
	store     *journal.Store
	exec      transcode.Executor
}

// WithDryRun enables simulation mode: decisions and log lines only, no
// filesystem mutation and no tool invocations.
func WithDryRun(dryRun bool) Option {
	return func(o *options) { o.dryRun = dryRun }
}

// WithOverwrite disables the skip-existing policy for this run.
func WithOverwrite(overwrite bool) Option {
	return func(o *options) { o.overwrite = overwrite }
}

// WithJournal records the run and its per-file outcomes in the given store.
func WithJournal(store *journal.Store) Option {
	return func(o *options) { o.store = store }
}

// WithExecutor injects a custom executor for every tool invocation
// (primarily for tests).
func WithExecutor(exec transcode.Executor) Option {
	return func(o *options) { o.exec = exec }
}

// New builds a runner from the resolved configuration and capability probe.
func New(cfg *config.Config, caps deps.Capabilities, logger *slog.Logger, opts ...Option) *Runner {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	encoderOpts := []transcode.EncoderOption{
		transcode.WithDryRun(o.dryRun),
	}
	if o.overwrite || cfg.Encoding.OverwriteExisting {
		encoderOpts = append(encoderOpts, transcode.WithOverwrite(true))
	}
	splitterOpts := []transcode.SplitterOption{
		transcode.WithSplitterDryRun(o.dryRun),
	}
	var taggerOpts []tags.PropagatorOption
	if o.exec != nil {
		encoderOpts = append(encoderOpts, transcode.WithExecutor(o.exec))
		splitterOpts = append(splitterOpts, transcode.WithSplitterExecutor(o.exec))
		taggerOpts = append(taggerOpts, tags.WithExecutor(o.exec))
	}
	encoderOpts = append(encoderOpts, transcode.WithTagger(tags.NewPropagator(cfg, caps, logger, taggerOpts...)))

	return &Runner{
		cfg:  cfg,
		caps: caps,
		mapper: layout.Mapper{
			SourceRoot: cfg.Paths.SourceDir,
			OutputRoot: cfg.Paths.OutputDir,
			TargetExt:  cfg.Encoding.TargetExtension,
		},
		encoder:  transcode.NewEncoder(cfg, logger, encoderOpts...),
		splitter: transcode.NewSplitter(cfg, logger, splitterOpts...),
		store:    o.store,
		logger:   logger,
		dryRun:   o.dryRun,
		workers:  cfg.Encoding.Workers,
	}
}

// Run converts the whole source tree. The returned error is non-nil only for
// fatal preconditions; per-file failures land in Summary.Failed.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := r.checkPreconditions(); err != nil {
		return Summary{}, err
	}

	unlock, err := r.acquireLock()
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	files, skipped, err := scan.Sources(r.cfg.Paths.SourceDir, r.cfg.Encoding.SourceExtension)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrNotFound, "run", "scan source tree", r.cfg.Paths.SourceDir, err)
	}
	for _, path := range skipped {
		r.logger.Warn("skipping unreadable path", slog.String("path", path))
	}

	summary := Summary{Total: len(files)}
	summary.RunID = r.beginJournal(ctx)

	results := r.processAll(ctx, files)
	var failed atomic.Int64
	for res := range results {
		switch res.outcome {
		case "converted":
			summary.Converted++
		case "skipped":
			summary.Skipped++
		case "simulated":
			summary.Simulated++
		case "split":
			summary.SplitImages++
			summary.SplitTracks += res.tracks
		}
		failed.Add(int64(res.failed))
		r.recordJournal(ctx, summary.RunID, res)
	}
	summary.Failed = int(failed.Load())

	r.finishJournal(ctx, summary)
	r.logger.Info("run complete",
		slog.Int("total", summary.Total),
		slog.Int("converted", summary.Converted),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

func (r *Runner) checkPreconditions() error {
	if !r.caps.Encoder.Available {
		return services.Wrap(services.ErrConfiguration, "run", "probe tools",
			fmt.Sprintf("encoder unavailable: %s", r.caps.Encoder.Detail), nil)
	}
	info, err := os.Stat(r.cfg.Paths.SourceDir)
	if err != nil || !info.IsDir() {
		return services.Wrap(services.ErrNotFound, "run", "check source root", r.cfg.Paths.SourceDir, err)
	}
	if !r.dryRun {
		if err := os.MkdirAll(r.cfg.Paths.OutputDir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "run", "create output root", r.cfg.Paths.OutputDir, err)
		}
	}
	return nil
}

// acquireLock takes the per-configuration run lock. It lives in the work
// directory, not the output tree, so dry runs stay free of destination
// mutations.
func (r *Runner) acquireLock() (func(), error) {
	if err := os.MkdirAll(r.cfg.Paths.WorkDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "create work directory", r.cfg.Paths.WorkDir, err)
	}
	lock := flock.New(filepath.Join(r.cfg.Paths.WorkDir, "remaster.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "acquire run lock", lock.Path(), err)
	}
	if !held {
		return nil, services.Wrap(services.ErrConfiguration, "run", "acquire run lock",
			"another run is already in progress", nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

type fileResult struct {
	source  string
	outcome string
	detail  string
	tracks  int
	failed  int
}

func (r *Runner) processAll(ctx context.Context, files []string) <-chan fileResult {
	results := make(chan fileResult, len(files))
	if r.workers <= 1 {
		for _, source := range files {
			results <- r.processFile(ctx, source)
		}
		close(results)
		return results
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range jobs {
				results <- r.processFile(ctx, source)
			}
		}()
	}
	go func() {
		for _, source := range files {
			jobs <- source
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()
	return results
}

// processFile runs one source file's full pipeline. Errors never escape;
// they become failure counts so sibling files keep converting.
func (r *Runner) processFile(ctx context.Context, source string) fileResult {
	res := fileResult{source: source}

	destDir := r.mapper.DestinationDir(source)
	if !r.dryRun {
		var err error
		if destDir, err = r.mapper.EnsureDestinationDir(source); err != nil {
			r.logger.Error("destination directory", slog.String("source", source), slog.String("error", err.Error()))
			res.outcome = "failed"
			res.detail = err.Error()
			res.failed = 1
			return res
		}
	}

	if cue := scan.LocateCue(source); cue != "" {
		if !r.caps.CanSplit() {
			r.logger.Warn("cue sidecar found but splitter unavailable; converting whole file",
				slog.String("source", source), slog.String("cue", cue))
		} else {
			split, err := r.splitter.Split(ctx, source, cue, func(ctx context.Context, track string) error {
				_, err := r.encoder.Encode(ctx, track, destDir)
				return err
			})
			if err == nil {
				if r.dryRun {
					res.outcome = "simulated"
					return res
				}
				res.outcome = "split"
				res.tracks = split.Tracks - split.Failed
				res.failed = split.Failed
				return res
			}
			r.logger.Warn("cue split failed; falling back to single-file conversion",
				slog.String("source", source), slog.String("error", err.Error()))
		}
	}

	outcome, err := r.encoder.Encode(ctx, source, destDir)
	if err != nil {
		r.logger.Error("conversion failed", slog.String("source", source), slog.String("error", err.Error()))
		res.outcome = "failed"
		res.detail = err.Error()
		res.failed = 1
		return res
	}
	res.outcome = outcome.String()
	return res
}

func (r *Runner) beginJournal(ctx context.Context) string {
	if r.store == nil {
		return ""
	}
	id, err := r.store.BeginRun(ctx, r.cfg.Paths.SourceDir, r.cfg.Paths.OutputDir, r.dryRun)
	if err != nil {
		r.logger.Warn("journal unavailable", slog.String("error", err.Error()))
		return ""
	}
	return id
}

func (r *Runner) recordJournal(ctx context.Context, runID string, res fileResult) {
	if r.store == nil || runID == "" {
		return
	}
	if err := r.store.RecordFile(ctx, runID, res.source, res.outcome, res.detail, res.tracks); err != nil {
		r.logger.Warn("journal write failed", slog.String("error", err.Error()))
	}
}

func (r *Runner) finishJournal(ctx context.Context, summary Summary) {
	if r.store == nil || summary.RunID == "" {
		return
	}
	converted := summary.Converted + summary.SplitTracks
	if err := r.store.FinishRun(ctx, summary.RunID, converted, summary.Skipped, summary.Failed); err != nil {
		r.logger.Warn("journal write failed", slog.String("error", err.Error()))
	}
}
