package tags

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"remaster/internal/config"
	"remaster/internal/deps"
	"remaster/internal/transcode"
	"remaster/internal/workspace"
)

// Propagator applies a source file's tags and artwork to an encoded output.
// Construct one per run; it is immutable and safe for concurrent use.
type Propagator struct {
	exportBin   string
	writeBin    string
	workDir     string
	losslessExt string
	enabled     bool
	titleGenre  bool
	exec        transcode.Executor
	logger      *slog.Logger
}

// PropagatorOption configures the propagator.
type PropagatorOption func(*Propagator)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec transcode.Executor) PropagatorOption {
	return func(p *Propagator) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// NewPropagator builds a propagator from the resolved configuration and the
// startup capability probe. When either tag tool is unavailable the
// propagator stays constructed but every Propagate call is a no-op.
func NewPropagator(cfg *config.Config, caps deps.Capabilities, logger *slog.Logger, opts ...PropagatorOption) *Propagator {
	p := &Propagator{
		exportBin:   cfg.Tools.TagExport,
		writeBin:    cfg.Tools.TagWrite,
		workDir:     cfg.Paths.WorkDir,
		losslessExt: cfg.Encoding.SourceExtension,
		enabled:     caps.CanTag(),
		titleGenre:  cfg.Encoding.TitleCaseGenre,
		exec:        transcode.NewExecutor(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propagate exports tags and artwork from sourcePath and writes them onto
// destPath. Every failure short of workspace creation degrades to a warning;
// the returned error is always nil when propagation is merely impossible.
func (p *Propagator) Propagate(ctx context.Context, sourcePath, destPath string) error {
	if !p.enabled {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(sourcePath), p.losslessExt) {
		return nil
	}

	ws, err := workspace.New(p.workDir, "tags")
	if err != nil {
		return err
	}
	defer ws.Close()

	set, ok := p.exportTags(ctx, ws, sourcePath)
	if !ok {
		return nil
	}
	if p.titleGenre {
		set = TitleCaseGenre(set)
	}
	set.ArtworkPath = p.exportArtwork(ctx, ws, sourcePath)
	if set.Empty() {
		return nil
	}

	args := append([]string{destPath, "--overWrite"}, WriterArgs(set)...)
	if err := p.exec.Run(ctx, p.writeBin, args, nil); err != nil {
		p.logger.Warn("tag write failed",
			slog.String("destination", destPath),
			slog.String("error", err.Error()))
	}
	return nil
}

func (p *Propagator) exportTags(ctx context.Context, ws *workspace.Workspace, sourcePath string) (TagSet, bool) {
	exportPath := ws.Path("tags.txt")
	args := []string{"--export-tags-to=" + exportPath, sourcePath}
	if err := p.exec.Run(ctx, p.exportBin, args, nil); err != nil {
		p.logger.Warn("tag export failed",
			slog.String("source", sourcePath),
			slog.String("error", err.Error()))
		return TagSet{}, false
	}
	file, err := os.Open(exportPath)
	if err != nil {
		p.logger.Warn("tag export unreadable", slog.String("source", sourcePath), slog.String("error", err.Error()))
		return TagSet{}, false
	}
	defer file.Close()
	return ParseExport(file), true
}

func (p *Propagator) exportArtwork(ctx context.Context, ws *workspace.Workspace, sourcePath string) string {
	rawPath := ws.Path("artwork")
	args := []string{"--export-picture-to=" + rawPath, sourcePath}
	if err := p.exec.Run(ctx, p.exportBin, args, nil); err != nil {
		// Most sources simply have no embedded picture.
		return ""
	}
	data, err := os.ReadFile(rawPath)
	if err != nil || len(data) == 0 {
		return ""
	}
	typed := rawPath + SniffImageExtension(data)
	if err := os.Rename(rawPath, typed); err != nil {
		p.logger.Warn("artwork staging failed", slog.String("source", sourcePath), slog.String("error", err.Error()))
		return ""
	}
	return typed
}
