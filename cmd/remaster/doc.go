// Command remaster converts a lossless music library into a mirrored encoded
// copy. The convert command walks the configured source tree, the tools
// command reports external tool availability, runs lists recorded history,
// and config manages the TOML configuration file.
package main
