// Package workspace manages uniquely named scratch directories.
//
// Every multi-step operation (cue splitting, tag export) works inside a
// Workspace and removes it through Close on every exit path. Names embed a
// UUID so concurrent workers never collide.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is an exclusively owned scratch directory.
type Workspace struct {
	root string
}

// New creates a scratch directory under parent. An empty parent falls back to
// the system temp directory.
func New(parent, prefix string) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace parent: %w", err)
	}
	if prefix == "" {
		prefix = "remaster"
	}
	root := filepath.Join(parent, fmt.Sprintf("%s-%s", prefix, uuid.NewString()))
	if err := os.Mkdir(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Root returns the workspace directory path.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

// Close removes the workspace and everything inside it. Safe to call more
// than once.
func (w *Workspace) Close() error {
	if w == nil || w.root == "" {
		return nil
	}
	err := os.RemoveAll(w.root)
	w.root = ""
	return err
}
