// Package scan enumerates source audio files and locates cue sidecars.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sources walks root and returns every regular file whose extension matches
// ext case-insensitively, sorted for deterministic processing order. An
// unreadable subtree does not abort the walk; its path is reported in skipped
// so the caller can log it, and the rest of the tree still converts.
func Sources(root, ext string) (files, skipped []string, err error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("stat source root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("source root %q is not a directory", root)
	}

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			skipped = append(skipped, path)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk source tree: %w", err)
	}
	sort.Strings(files)
	return files, skipped, nil
}

// LocateCue returns the cue sidecar accompanying sourcePath, or "" when the
// file is a plain single track. Two spellings are checked in order: the
// basename with the audio extension replaced by .cue, then the full original
// name with .cue appended. The first that exists wins.
func LocateCue(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	candidates := []string{
		strings.TrimSuffix(sourcePath, ext) + ".cue",
		sourcePath + ".cue",
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
