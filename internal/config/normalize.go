package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeTools()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.SourceExtension = normalizeExtension(c.Encoding.SourceExtension, defaultSourceExtension)
	c.Encoding.TargetExtension = normalizeExtension(c.Encoding.TargetExtension, defaultTargetExtension)
	if env := strings.TrimSpace(os.Getenv(EncoderArgsEnvVar)); env != "" {
		c.Encoding.EncoderArgs = env
	}
	if strings.TrimSpace(c.Encoding.EncoderArgs) == "" {
		c.Encoding.EncoderArgs = defaultEncoderArgs
	}
	if c.Encoding.Workers <= 0 {
		c.Encoding.Workers = defaultWorkers
	}
}

func (c *Config) normalizeTools() {
	c.Tools.Encoder = strings.TrimSpace(c.Tools.Encoder)
	c.Tools.Splitter = strings.TrimSpace(c.Tools.Splitter)
	c.Tools.TagExport = strings.TrimSpace(c.Tools.TagExport)
	c.Tools.TagWrite = strings.TrimSpace(c.Tools.TagWrite)
	if c.Tools.Encoder == "" {
		c.Tools.Encoder = defaultEncoderCommand
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.DebounceMS <= 0 {
		c.Watch.DebounceMS = defaultWatchDebounceMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeExtension(value, fallback string) string {
	ext := strings.ToLower(strings.TrimSpace(value))
	if ext == "" {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
