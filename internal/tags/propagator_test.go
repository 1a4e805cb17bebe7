package tags

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"remaster/internal/config"
	"remaster/internal/deps"
)

type fakeExecutor struct {
	calls [][]string
	run   func(binary string, args []string) error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string, _ io.Writer) error {
	call := append([]string{binary}, args...)
	f.calls = append(f.calls, call)
	if f.run != nil {
		return f.run(binary, args)
	}
	return nil
}

func availableCaps() deps.Capabilities {
	return deps.Capabilities{
		TagExport: deps.Status{Available: true},
		TagWrite:  deps.Status{Available: true},
	}
}

func propagatorConfig(t *testing.T) (*config.Config, string, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	source := filepath.Join(base, "track.flac")
	dest := filepath.Join(base, "track.m4a")
	for _, path := range []string{source, dest} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return &cfg, source, dest
}

func argValue(args []string, prefix string) string {
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			return strings.TrimPrefix(arg, prefix)
		}
	}
	return ""
}

func TestPropagateWritesMappedTags(t *testing.T) {
	cfg, source, dest := propagatorConfig(t)
	exec := &fakeExecutor{run: func(binary string, args []string) error {
		if binary == cfg.Tools.TagExport {
			if target := argValue(args, "--export-tags-to="); target != "" {
				return os.WriteFile(target, []byte("ARTIST=Foo\nTRACKNUMBER=3\nFOO=bar\n"), 0o644)
			}
			// Artwork export: no embedded picture.
			return errors.New("no picture")
		}
		return nil
	}}

	p := NewPropagator(cfg, availableCaps(), slog.New(slog.DiscardHandler), WithExecutor(exec))
	if err := p.Propagate(context.Background(), source, dest); err != nil {
		t.Fatalf("propagate: %v", err)
	}

	var writeCall []string
	for _, call := range exec.calls {
		if call[0] == cfg.Tools.TagWrite {
			writeCall = call
		}
	}
	if writeCall == nil {
		t.Fatalf("tag writer never invoked: %v", exec.calls)
	}
	joined := strings.Join(writeCall, " ")
	if !strings.Contains(joined, dest) || !strings.Contains(joined, "--overWrite") {
		t.Fatalf("writer call missing destination or overwrite flag: %v", writeCall)
	}
	if !strings.Contains(joined, "--artist Foo") || !strings.Contains(joined, "--tracknum 3") {
		t.Fatalf("mapped tags missing: %v", writeCall)
	}
	if strings.Contains(joined, "bar") {
		t.Fatalf("unmapped key leaked: %v", writeCall)
	}
	assertNoResidue(t, cfg.Paths.WorkDir)
}

func TestPropagateAttachesSniffedArtwork(t *testing.T) {
	cfg, source, dest := propagatorConfig(t)
	exec := &fakeExecutor{run: func(binary string, args []string) error {
		if binary != cfg.Tools.TagExport {
			return nil
		}
		if target := argValue(args, "--export-tags-to="); target != "" {
			return os.WriteFile(target, []byte("TITLE=Song\n"), 0o644)
		}
		if target := argValue(args, "--export-picture-to="); target != "" {
			return os.WriteFile(target, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, 0o644)
		}
		return nil
	}}

	p := NewPropagator(cfg, availableCaps(), slog.New(slog.DiscardHandler), WithExecutor(exec))
	if err := p.Propagate(context.Background(), source, dest); err != nil {
		t.Fatalf("propagate: %v", err)
	}

	last := exec.calls[len(exec.calls)-1]
	joined := strings.Join(last, " ")
	if !strings.Contains(joined, "--artwork") || !strings.Contains(joined, ".png") {
		t.Fatalf("artwork argument missing or untyped: %v", last)
	}
	assertNoResidue(t, cfg.Paths.WorkDir)
}

func TestPropagateExportFailureIsNoOp(t *testing.T) {
	cfg, source, dest := propagatorConfig(t)
	exec := &fakeExecutor{run: func(binary string, _ []string) error {
		if binary == cfg.Tools.TagExport {
			return errors.New("export failed")
		}
		t.Fatal("writer must not run after a failed export")
		return nil
	}}

	p := NewPropagator(cfg, availableCaps(), slog.New(slog.DiscardHandler), WithExecutor(exec))
	if err := p.Propagate(context.Background(), source, dest); err != nil {
		t.Fatalf("propagate should degrade silently: %v", err)
	}
	assertNoResidue(t, cfg.Paths.WorkDir)
}

func TestPropagateSkipsWhenToolsMissing(t *testing.T) {
	cfg, source, dest := propagatorConfig(t)
	exec := &fakeExecutor{}
	p := NewPropagator(cfg, deps.Capabilities{}, slog.New(slog.DiscardHandler), WithExecutor(exec))

	if err := p.Propagate(context.Background(), source, dest); err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("no tool should run without capabilities: %v", exec.calls)
	}
}

func TestPropagateSkipsNonLosslessInput(t *testing.T) {
	cfg, _, dest := propagatorConfig(t)
	exec := &fakeExecutor{}
	p := NewPropagator(cfg, availableCaps(), slog.New(slog.DiscardHandler), WithExecutor(exec))

	if err := p.Propagate(context.Background(), "input.wav", dest); err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("non-lossless input must be a no-op: %v", exec.calls)
	}
}

func TestPropagateWriteFailureIsWarningOnly(t *testing.T) {
	cfg, source, dest := propagatorConfig(t)
	exec := &fakeExecutor{run: func(binary string, args []string) error {
		if binary == cfg.Tools.TagExport {
			if target := argValue(args, "--export-tags-to="); target != "" {
				return os.WriteFile(target, []byte("TITLE=Song\n"), 0o644)
			}
			return errors.New("no picture")
		}
		return errors.New("writer exploded")
	}}

	p := NewPropagator(cfg, availableCaps(), slog.New(slog.DiscardHandler), WithExecutor(exec))
	if err := p.Propagate(context.Background(), source, dest); err != nil {
		t.Fatalf("write failure must not propagate: %v", err)
	}
	assertNoResidue(t, cfg.Paths.WorkDir)
}

func assertNoResidue(t *testing.T, workDir string) {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("residual workspaces remain: %v", entries)
	}
}
