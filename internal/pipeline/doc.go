// Package pipeline walks the source tree and drives every conversion.
//
// The Runner enumerates eligible source files, routes each through the cue
// locator into either the splitter or the encoder, and aggregates per-file
// failures into a single counter. One problematic file never aborts the
// walk; the run's overall result is a failure iff the counter is non-zero.
//
// A file lock scoped to the work directory keeps two runs from interleaving
// on the same configuration. With workers > 1 files convert in parallel,
// each file's full pipeline confined to a single worker.
package pipeline
