package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"remaster/internal/config"
	"remaster/internal/services"
)

func testSplitterConfig(t *testing.T) (*config.Config, string, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "src")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	source := filepath.Join(cfg.Paths.SourceDir, "album.flac")
	cue := filepath.Join(cfg.Paths.SourceDir, "album.cue")
	for _, path := range []string{source, cue} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return &cfg, source, cue
}

func TestSplitEncodesEveryTrack(t *testing.T) {
	cfg, source, cue := testSplitterConfig(t)
	exec := &fakeExecutor{run: func(_ string, args []string, output io.Writer) error {
		dir := splitterDir(args)
		for i := 1; i <= 3; i++ {
			name := fmt.Sprintf("%02d - track.flac", i)
			if err := os.WriteFile(filepath.Join(dir, name), []byte("track"), 0o644); err != nil {
				return err
			}
		}
		fmt.Fprintln(output, "split ok")
		return nil
	}}
	sp := NewSplitter(cfg, discardLogger(), WithSplitterExecutor(exec))

	var encoded []string
	result, err := sp.Split(context.Background(), source, cue, func(_ context.Context, track string) error {
		encoded = append(encoded, filepath.Base(track))
		return nil
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if result.Tracks != 3 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(encoded) != 3 || encoded[0] != "01 - track.flac" || encoded[2] != "03 - track.flac" {
		t.Fatalf("encoded = %v", encoded)
	}
	assertWorkDirEmpty(t, cfg.Paths.WorkDir)
}

func TestSplitCountsTrackEncodeFailures(t *testing.T) {
	cfg, source, cue := testSplitterConfig(t)
	exec := &fakeExecutor{run: func(_ string, args []string, _ io.Writer) error {
		dir := splitterDir(args)
		for i := 1; i <= 2; i++ {
			if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%02d.flac", i)), []byte("t"), 0o644); err != nil {
				return err
			}
		}
		return nil
	}}
	sp := NewSplitter(cfg, discardLogger(), WithSplitterExecutor(exec))

	result, err := sp.Split(context.Background(), source, cue, func(_ context.Context, track string) error {
		if filepath.Base(track) == "01.flac" {
			return errors.New("encode failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if result.Tracks != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	assertWorkDirEmpty(t, cfg.Paths.WorkDir)
}

func TestSplitToolFailureReportsTailAndCleansUp(t *testing.T) {
	cfg, source, cue := testSplitterConfig(t)
	exec := &fakeExecutor{run: func(_ string, _ []string, output io.Writer) error {
		fmt.Fprintln(output, "shnsplit: cannot parse cue sheet")
		return errors.New("exit status 1")
	}}
	sp := NewSplitter(cfg, discardLogger(), WithSplitterExecutor(exec))

	called := false
	_, err := sp.Split(context.Background(), source, cue, func(_ context.Context, _ string) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected splitter failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error not tagged as external tool: %v", err)
	}
	if called {
		t.Fatal("no track should be encoded after a failed split")
	}
	assertWorkDirEmpty(t, cfg.Paths.WorkDir)
}

func TestSplitEmptyOutputIsFailure(t *testing.T) {
	cfg, source, cue := testSplitterConfig(t)
	sp := NewSplitter(cfg, discardLogger(), WithSplitterExecutor(&fakeExecutor{}))

	_, err := sp.Split(context.Background(), source, cue, func(_ context.Context, _ string) error { return nil })
	if err == nil {
		t.Fatal("expected failure when the splitter produces no tracks")
	}
	assertWorkDirEmpty(t, cfg.Paths.WorkDir)
}

func TestSplitDryRunDoesNotInvoke(t *testing.T) {
	cfg, source, cue := testSplitterConfig(t)
	exec := &fakeExecutor{}
	sp := NewSplitter(cfg, discardLogger(), WithSplitterExecutor(exec), WithSplitterDryRun(true))

	result, err := sp.Split(context.Background(), source, cue, func(_ context.Context, _ string) error {
		t.Fatal("dry run must not encode tracks")
		return nil
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if result.Tracks != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(exec.calls) != 0 {
		t.Fatal("dry run must not invoke the splitter")
	}
	if _, err := os.Stat(cfg.Paths.WorkDir); !os.IsNotExist(err) {
		// Dry run must not create the work dir either.
		entries, readErr := os.ReadDir(cfg.Paths.WorkDir)
		if readErr == nil && len(entries) > 0 {
			t.Fatalf("dry run touched the work dir: %v", entries)
		}
	}
}

func splitterDir(args []string) string {
	for i, arg := range args {
		if arg == "-d" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func assertWorkDirEmpty(t *testing.T, workDir string) {
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
