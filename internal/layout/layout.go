// Package layout maps source paths into the mirrored destination tree.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mapper computes destination paths that mirror the source tree's relative
// structure. It is immutable; build one per run from the resolved config.
type Mapper struct {
	SourceRoot string
	OutputRoot string
	TargetExt  string
}

// Relative strips the source root prefix from path. A path outside the root
// is returned unchanged; walks never produce one, but the fallback keeps a
// stray input from escaping into an absolute destination join.
func (m Mapper) Relative(path string) string {
	prefix := m.SourceRoot
	if prefix != "" && !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if prefix != "" && strings.HasPrefix(path, prefix) {
		return strings.TrimPrefix(path, prefix)
	}
	return path
}

// DestinationDir returns the mirrored directory for a source file.
func (m Mapper) DestinationDir(sourcePath string) string {
	rel := m.Relative(sourcePath)
	return filepath.Join(m.OutputRoot, filepath.Dir(rel))
}

// DestinationFile returns the full mirrored output path with the target
// extension applied.
func (m Mapper) DestinationFile(sourcePath string) string {
	return filepath.Join(m.DestinationDir(sourcePath), SwapExtension(filepath.Base(sourcePath), m.TargetExt))
}

// EnsureDestinationDir creates the mirrored directory for a source file.
// Creation is idempotent; "already exists" is never an error, which also
// makes it safe under concurrent workers.
func (m Mapper) EnsureDestinationDir(sourcePath string) (string, error) {
	dir := m.DestinationDir(sourcePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create destination directory %q: %w", dir, err)
	}
	return dir, nil
}

// SwapExtension replaces the extension of name with targetExt.
func SwapExtension(name, targetExt string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + targetExt
}
