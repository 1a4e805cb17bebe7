// Package transcode drives the external encoder and cue splitter.
//
// All subprocess invocations go through the Executor interface so tests can
// substitute fakes. The Encoder owns the skip/overwrite/dry-run policy for a
// single output file; the Splitter explodes a cue album image into per-track
// files inside a scratch workspace and feeds each through the Encoder.
//
// Invocations block until the subprocess exits and carry no deadline of their
// own; cancellation arrives only through the caller's context.
package transcode
