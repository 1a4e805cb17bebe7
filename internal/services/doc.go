// Package services defines the error taxonomy shared by the pipeline stages.
//
// Sentinel markers distinguish fatal configuration problems from external
// tool failures and transient per-file errors, so callers can decide between
// aborting the run and counting a failure without string matching.
package services
