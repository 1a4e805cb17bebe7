package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"remaster/internal/config"
	"remaster/internal/layout"
	"remaster/internal/services"
)

// Outcome describes what the Encoder did with one input file.
type Outcome int

const (
	OutcomeConverted Outcome = iota
	OutcomeSkipped
	OutcomeSimulated
)

// String returns the journal spelling of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeConverted:
		return "converted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSimulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// Tagger propagates tags and artwork from a source file onto an encoded
// output. Implementations must treat failures as best-effort.
type Tagger interface {
	Propagate(ctx context.Context, sourcePath, destPath string) error
}

// Encoder converts one input file into the destination tree. It is immutable
// after construction; the whole per-run policy lives in its fields.
type Encoder struct {
	binary    string
	args      []string
	targetExt string
	overwrite bool
	dryRun    bool
	exec      Executor
	tagger    Tagger
	logger    *slog.Logger
}

// EncoderOption configures the encoder.
type EncoderOption func(*Encoder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) EncoderOption {
	return func(e *Encoder) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithTagger attaches a metadata propagator invoked after successful encodes.
func WithTagger(tagger Tagger) EncoderOption {
	return func(e *Encoder) {
		e.tagger = tagger
	}
}

// WithDryRun switches the encoder into simulation mode.
func WithDryRun(dryRun bool) EncoderOption {
	return func(e *Encoder) {
		e.dryRun = dryRun
	}
}

// WithOverwrite switches off the skip-existing policy.
func WithOverwrite(overwrite bool) EncoderOption {
	return func(e *Encoder) {
		e.overwrite = overwrite
	}
}

// NewEncoder constructs an encoder from the resolved configuration.
func NewEncoder(cfg *config.Config, logger *slog.Logger, opts ...EncoderOption) *Encoder {
	enc := &Encoder{
		binary:    cfg.Tools.Encoder,
		args:      cfg.EncoderArgList(),
		targetExt: cfg.Encoding.TargetExtension,
		overwrite: cfg.Encoding.OverwriteExisting,
		exec:      commandExecutor{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(enc)
	}
	return enc
}

// Encode converts inputPath into destDir, honoring the skip/overwrite policy
// and simulation mode. The destination file name preserves the input basename
// with the target extension applied.
func (e *Encoder) Encode(ctx context.Context, inputPath, destDir string) (Outcome, error) {
	destPath := filepath.Join(destDir, layout.SwapExtension(filepath.Base(inputPath), e.targetExt))
	log := e.logger.With(slog.String("source", inputPath), slog.String("destination", destPath))

	if _, err := os.Stat(destPath); err == nil {
		if !e.overwrite {
			log.Info("skip existing output")
			return OutcomeSkipped, nil
		}
		if !e.dryRun {
			if err := os.Remove(destPath); err != nil {
				return 0, services.Wrap(services.ErrTransient, "encode", "remove existing output", destPath, err)
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, services.Wrap(services.ErrTransient, "encode", "stat destination", destPath, err)
	}

	args := e.invocationArgs(inputPath, destPath)
	if e.dryRun {
		log.Info("dry-run: would encode", slog.String("command", CommandLine(e.binary, args)))
		return OutcomeSimulated, nil
	}

	if err := e.exec.Run(ctx, e.binary, args, nil); err != nil {
		// Do not leave a half-written output behind.
		_ = os.Remove(destPath)
		return 0, services.Wrap(services.ErrExternalTool, "encode", "run encoder", fmt.Sprintf("input %s", inputPath), err)
	}
	log.Info("converted")

	if e.tagger != nil {
		if err := e.tagger.Propagate(ctx, inputPath, destPath); err != nil {
			log.Warn("tag propagation failed", slog.String("error", err.Error()))
		}
	}
	return OutcomeConverted, nil
}

func (e *Encoder) invocationArgs(inputPath, destPath string) []string {
	args := make([]string, 0, len(e.args)+3)
	args = append(args, "-i", inputPath)
	args = append(args, e.args...)
	args = append(args, destPath)
	return args
}
