// Package deps probes the external binaries remaster drives.
//
// Probing happens once at startup and produces a Capabilities set the
// splitter and tag propagator consult instead of re-checking PATH per file.
// The encoder is the only required tool; everything else degrades gracefully.
package deps
