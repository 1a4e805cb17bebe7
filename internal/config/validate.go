package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.source_dir")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.SourceExtension == c.Encoding.TargetExtension {
		return fmt.Errorf("encoding.target_extension %q must differ from encoding.source_extension", c.Encoding.TargetExtension)
	}
	if c.Encoding.Workers <= 0 {
		return errors.New("encoding.workers must be positive")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.Encoder == "" {
		return errors.New("tools.encoder must be set")
	}
	// Tag export/write are a pair: configuring only one of them disables
	// nothing silently later, so reject it here.
	if (c.Tools.TagExport == "") != (c.Tools.TagWrite == "") {
		return errors.New("tools.tag_export and tools.tag_write must be set together (or both left empty)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
