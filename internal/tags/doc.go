// Package tags carries metadata from lossless sources onto encoded outputs.
//
// Tags are exported with the configured export tool into a flat KEY=VALUE
// file, mapped through a closed vocabulary onto the tag writer's flags, and
// written back with an overwrite flag. Embedded artwork is exported
// alongside, sniffed for its image type, and attached when present.
// Propagation is an enhancement: every failure degrades to a warning at
// most and never fails the conversion that triggered it.
package tags
