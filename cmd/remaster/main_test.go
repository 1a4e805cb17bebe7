package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"remaster/internal/config"
	"remaster/internal/services"
	"remaster/internal/testsupport"
)

func writeConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteSource(t, cfg.Paths.SourceDir, "track.flac", false)
	configPath := writeConfigFile(t, cfg)

	out, err := runCommand(t, "convert", "--dry-run", "--config", configPath)
	if err != nil {
		t.Fatalf("convert --dry-run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Would convert:  1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatal("dry run created the output tree")
	}
}

func TestConvertRequiresEncoder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.Encoder = "definitely-not-a-real-encoder"
	testsupport.WriteSource(t, cfg.Paths.SourceDir, "track.flac", false)
	configPath := writeConfigFile(t, cfg)

	_, err := runCommand(t, "convert", "--config", configPath)
	if err == nil {
		t.Fatal("expected an error when the encoder is missing")
	}
	if !services.IsFatal(err) {
		t.Fatalf("missing encoder must be fatal, got %v", err)
	}
}

func TestConvertUncreatableOutputRootIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteSource(t, cfg.Paths.SourceDir, "track.flac", false)

	// A regular file where a parent directory should be makes MkdirAll fail.
	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.Paths.OutputDir = filepath.Join(blocker, "out")
	configPath := writeConfigFile(t, cfg)

	_, err := runCommand(t, "convert", "--config", configPath)
	if err == nil {
		t.Fatal("expected an error for an uncreatable output root")
	}
	if !services.IsFatal(err) {
		t.Fatalf("uncreatable output root must be fatal, got %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	out, err = runCommand(t, "config", "validate", "--config", target)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	if out, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v\n%s", err, out)
	}
}

func TestDryRunRecordedInJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteSource(t, cfg.Paths.SourceDir, "track.flac", false)
	configPath := writeConfigFile(t, cfg)

	if out, err := runCommand(t, "convert", "--dry-run", "--config", configPath); err != nil {
		t.Fatalf("convert --dry-run: %v\n%s", err, out)
	}

	out, err := runCommand(t, "runs", "--config", configPath)
	if err != nil {
		t.Fatalf("runs: %v\n%s", err, out)
	}
	if strings.Contains(out, "No runs recorded yet.") {
		t.Fatalf("dry run missing from journal:\n%s", out)
	}
	if !strings.Contains(out, "yes") {
		t.Fatalf("dry-run flag not recorded:\n%s", out)
	}
}

func TestRunsWithEmptyJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeConfigFile(t, cfg)

	out, err := runCommand(t, "runs", "--config", configPath)
	if err != nil {
		t.Fatalf("runs: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No runs recorded yet.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestToolsReportsAvailability(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg", "shnsplit"))
	cfg.Tools.TagExport = "missing-tag-export"
	cfg.Tools.TagWrite = "missing-tag-write"
	configPath := writeConfigFile(t, cfg)

	out, err := runCommand(t, "tools", "--config", configPath)
	if err != nil {
		t.Fatalf("tools: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Encoder") || !strings.Contains(out, "Splitter") {
		t.Fatalf("tool rows missing:\n%s", out)
	}
	if !strings.Contains(out, "Tags and artwork will not be propagated") {
		t.Fatalf("expected tag propagation notice:\n%s", out)
	}
}
