// Package sandbox restricts file and git operations to a fixed set of
// allow-listed root directories. Validation resolves symlinks and relative
// segments before the prefix check, so traversal tricks cannot escape.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox validates paths against its allow-listed roots.
type Sandbox struct {
	roots []string
}

// New creates a sandbox from the given root directories. Roots are
// normalized to absolute cleaned paths.
func New(roots []string) (*Sandbox, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one sandbox root is required")
	}

	// Roots get the same symlink resolution as validated paths, so a
	// root that is itself a symlink still prefix-matches.
	normalized := make([]string, 0, len(roots))
	for _, root := range roots {
		resolved, err := resolve(root)
		if err != nil {
			return nil, fmt.Errorf("invalid sandbox root %q: %w", root, err)
		}
		normalized = append(normalized, resolved)
	}

	return &Sandbox{roots: normalized}, nil
}

// Roots returns the allow-listed root directories.
func (s *Sandbox) Roots() []string {
	ret := make([]string, len(s.roots))
	copy(ret, s.roots)
	return ret
}

// Validate resolves path and checks it stays inside one of the roots.
// Returns the resolved absolute path, or an error describing the
// violation. The error is produced before any I/O on the target happens.
func (s *Sandbox) Validate(path string) (string, error) {
	resolved, err := resolve(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}

	for _, root := range s.roots {
		if resolved == root || strings.HasPrefix(resolved, root+string(filepath.Separator)) {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("access to %q denied: allowed directories are %s",
		path, strings.Join(s.roots, ", "))
}

// resolve produces the absolute, symlink-free form of path. The target may
// not exist yet (file_write creates files), so symlinks are evaluated on
// the deepest existing ancestor and the remaining segments are re-appended.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	existing := abs
	var tail []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		tail = append([]string{filepath.Base(existing)}, tail...)
		existing = parent
	}

	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", err
	}

	return filepath.Clean(filepath.Join(append([]string{real}, tail...)...)), nil
}
