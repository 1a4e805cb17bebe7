package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and any missing parent directories) with the given
// contents.
func WriteFile(t testing.TB, path string, contents []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSource drops one source file (and optional cue sidecar) under the
// configured source tree, returning the absolute file path.
func WriteSource(t testing.TB, sourceDir, rel string, withCue bool) string {
	t.Helper()

	path := filepath.Join(sourceDir, rel)
	WriteFile(t, path, []byte("audio"))
	if withCue {
		cue := path[:len(path)-len(filepath.Ext(path))] + ".cue"
		WriteFile(t, cue, []byte("FILE \"image\" WAVE\n"))
	}
	return path
}
