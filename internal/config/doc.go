// Package config loads, normalizes, and validates remaster configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REMASTER_ENCODER_ARGS. The Config type centralizes every knob the CLI
// needs, allowing source/output directories and external tool commands to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extensions, and clear validation errors.
package config
