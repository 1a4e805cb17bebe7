// Package logging builds the slog logger remaster uses everywhere.
//
// Two formats are supported: a compact console handler for interactive runs
// and a JSON handler for machine consumption. Output fans out to stdout plus
// a log file under the configured log directory.
package logging
