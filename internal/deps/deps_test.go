package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"remaster/internal/config"
)

func stubBinaries(t *testing.T, names ...string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries rely on shell scripts")
	}
	binDir := t.TempDir()
	for _, name := range names {
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir)
}

func TestProbeReportsMissingAndUnset(t *testing.T) {
	stubBinaries(t, "ffmpeg")

	cfg := config.Default()
	cfg.Tools.Splitter = "absent-tool"
	cfg.Tools.TagExport = ""

	caps := Probe(&cfg)
	if !caps.Encoder.Available {
		t.Fatalf("expected encoder available: %+v", caps.Encoder)
	}
	if caps.Splitter.Available || caps.Splitter.Detail == "" {
		t.Fatalf("expected splitter unavailable with detail: %+v", caps.Splitter)
	}
	if caps.TagExport.Available || caps.TagExport.Detail != "command not configured" {
		t.Fatalf("unexpected status for unset command: %+v", caps.TagExport)
	}
	if caps.Encoder.Optional || !caps.Splitter.Optional {
		t.Fatalf("optional flags wrong: %+v", caps)
	}
}

func TestProbeCapabilityPairing(t *testing.T) {
	stubBinaries(t, "ffmpeg", "metaflac")

	cfg := config.Default()

	caps := Probe(&cfg)
	if !caps.Encoder.Available {
		t.Fatal("encoder should be available")
	}
	if caps.CanSplit() {
		t.Fatal("splitter missing, CanSplit should be false")
	}
	if caps.CanTag() {
		t.Fatal("tag writer missing, CanTag should be false")
	}
}

func TestProbeAllAvailable(t *testing.T) {
	stubBinaries(t, "ffmpeg", "shnsplit", "metaflac", "AtomicParsley")

	cfg := config.Default()
	caps := Probe(&cfg)
	if !caps.CanSplit() || !caps.CanTag() {
		t.Fatalf("expected full capabilities, got %+v", caps)
	}
	if len(caps.List()) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(caps.List()))
	}
}
