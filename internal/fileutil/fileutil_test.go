package fileutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestTailLinesShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines, err := TailLines(path, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestTailLinesKeepsLastN(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 25; i++ {
		b.WriteString("line " + strconv.Itoa(i) + "\n")
	}
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines, err := TailLines(path, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 10 {
		t.Fatalf("len = %d, want 10", len(lines))
	}
	if lines[0] != "line 16" || lines[9] != "line 25" {
		t.Fatalf("window = %v", lines)
	}
}

func TestTailLinesMissingFile(t *testing.T) {
	if _, err := TailLines(filepath.Join(t.TempDir(), "absent"), 5); err == nil {
		t.Fatal("expected error for missing file")
	}
}
