package transcode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"remaster/internal/config"
	"remaster/internal/fileutil"
	"remaster/internal/services"
	"remaster/internal/workspace"
)

const splitterLogTail = 10

// SplitResult summarizes one cue-split operation.
type SplitResult struct {
	// Tracks is the number of track files produced and submitted for encoding.
	Tracks int
	// Failed counts tracks whose encoding failed.
	Failed int
}

// EncodeTrack is invoked once per produced track file while the split
// workspace is still alive.
type EncodeTrack func(ctx context.Context, trackPath string) error

// Splitter explodes a cue album image into per-track files. A non-nil error
// means the split itself did not happen; the caller must fall back to
// encoding the source whole.
type Splitter struct {
	binary    string
	workDir   string
	sourceExt string
	dryRun    bool
	exec      Executor
	logger    *slog.Logger
}

// SplitterOption configures the splitter.
type SplitterOption func(*Splitter)

// WithSplitterExecutor injects a custom executor (primarily for tests).
func WithSplitterExecutor(exec Executor) SplitterOption {
	return func(s *Splitter) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithSplitterDryRun switches the splitter into simulation mode.
func WithSplitterDryRun(dryRun bool) SplitterOption {
	return func(s *Splitter) {
		s.dryRun = dryRun
	}
}

// NewSplitter constructs a splitter from the resolved configuration.
func NewSplitter(cfg *config.Config, logger *slog.Logger, opts ...SplitterOption) *Splitter {
	sp := &Splitter{
		binary:    cfg.Tools.Splitter,
		workDir:   cfg.Paths.WorkDir,
		sourceExt: cfg.Encoding.SourceExtension,
		exec:      commandExecutor{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(sp)
	}
	return sp
}

// Split runs the external splitter on sourcePath using cuePath, then feeds
// every produced track through encode. The scratch workspace is removed on
// every exit path. Track encoding failures are counted in the result, not
// returned as an error; only a failed or empty split returns one.
func (s *Splitter) Split(ctx context.Context, sourcePath, cuePath string, encode EncodeTrack) (SplitResult, error) {
	args := s.invocationArgs(sourcePath, cuePath, "<workspace>")
	if s.dryRun {
		s.logger.Info("dry-run: would split cue image",
			slog.String("source", sourcePath),
			slog.String("cue", cuePath),
			slog.String("command", CommandLine(s.binary, args)))
		return SplitResult{}, nil
	}

	ws, err := workspace.New(s.workDir, "split")
	if err != nil {
		return SplitResult{}, services.Wrap(services.ErrTransient, "split", "create workspace", sourcePath, err)
	}
	defer ws.Close()

	logPath := ws.Path("split.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return SplitResult{}, services.Wrap(services.ErrTransient, "split", "create tool log", sourcePath, err)
	}

	runErr := s.exec.Run(ctx, s.binary, s.invocationArgs(sourcePath, cuePath, ws.Root()), logFile)
	_ = logFile.Close()
	if runErr != nil {
		if tail, tailErr := fileutil.TailLines(logPath, splitterLogTail); tailErr == nil && len(tail) > 0 {
			s.logger.Error("splitter output", slog.String("source", sourcePath), slog.String("tail", strings.Join(tail, "\n")))
		}
		return SplitResult{}, services.Wrap(services.ErrExternalTool, "split", "run splitter", sourcePath, runErr)
	}

	tracks, err := s.collectTracks(ws.Root())
	if err != nil {
		return SplitResult{}, services.Wrap(services.ErrTransient, "split", "collect tracks", sourcePath, err)
	}
	if len(tracks) == 0 {
		return SplitResult{}, services.Wrap(services.ErrExternalTool, "split", "collect tracks", "splitter produced no track files", nil)
	}

	result := SplitResult{Tracks: len(tracks)}
	for _, track := range tracks {
		if err := encode(ctx, track); err != nil {
			result.Failed++
			s.logger.Error("track encode failed", slog.String("track", track), slog.String("error", err.Error()))
		}
	}
	return result, nil
}

func (s *Splitter) invocationArgs(sourcePath, cuePath, workDir string) []string {
	outputFormat := strings.TrimPrefix(strings.ToLower(s.sourceExt), ".")
	return []string{
		"-f", cuePath,
		"-o", outputFormat,
		"-d", workDir,
		"-t", "%n - %t",
		sourcePath,
	}
}

func (s *Splitter) collectTracks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	tracks := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), s.sourceExt) {
			continue
		}
		tracks = append(tracks, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(tracks)
	return tracks, nil
}
