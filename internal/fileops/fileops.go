// Package fileops implements the sandboxed local filesystem capability.
// The agent uses it to inspect and edit files of cloned repositories.
package fileops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/MimeLyc/kube-agent/internal/sandbox"
)

const (
	// Maximum file size accepted by Read (1 MiB)
	maxReadSize = 1 << 20
	// Maximum content size accepted by Write (1 MiB)
	maxWriteSize = 1 << 20
	// Maximum number of entries returned by List
	maxListEntries = 500
)

// Ops provides list/read/write operations confined to a sandbox.
type Ops struct {
	sandbox *sandbox.Sandbox
}

// New creates a file operations adapter over the given sandbox.
func New(sb *sandbox.Sandbox) *Ops {
	return &Ops{sandbox: sb}
}

// List returns the entries of a directory, optionally recursing. The
// output marks directories with a trailing slash and truncates after
// maxListEntries entries.
func (o *Ops) List(path string, recursive bool) (string, error) {
	resolved, err := o.sandbox.Validate(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory does not exist: %s", path)
		}
		return "", fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", path)
	}

	var entries []string
	truncated := false

	if recursive {
		err = filepath.WalkDir(resolved, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if p == resolved {
				return nil
			}
			if len(entries) >= maxListEntries {
				truncated = true
				return filepath.SkipAll
			}
			rel, relErr := filepath.Rel(resolved, p)
			if relErr != nil {
				return relErr
			}
			suffix := ""
			if d.IsDir() {
				suffix = "/"
			}
			entries = append(entries, "  "+rel+suffix)
			return nil
		})
	} else {
		var dirEntries []fs.DirEntry
		dirEntries, err = os.ReadDir(resolved)
		if err == nil {
			for _, d := range dirEntries {
				if len(entries) >= maxListEntries {
					truncated = true
					break
				}
				suffix := ""
				if d.IsDir() {
					suffix = "/"
				}
				entries = append(entries, "  "+d.Name()+suffix)
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", path, err)
	}

	if len(entries) == 0 {
		return fmt.Sprintf("Directory is empty: %s", path), nil
	}

	sort.Strings(entries)
	if truncated {
		entries = append(entries, fmt.Sprintf("  ... (limit of %d entries reached)", maxListEntries))
	}

	header := fmt.Sprintf("Directory: %s (%d entries)", path, len(entries))
	if recursive {
		header += " [recursive]"
	}
	return header + "\n" + strings.Join(entries, "\n"), nil
}

// Read returns the content of a text file, prefixed with a small header
// carrying the line and byte counts. Binary content is refused.
func (o *Ops) Read(path string) (string, error) {
	resolved, err := o.sandbox.Validate(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file does not exist: %s", path)
		}
		return "", fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("not a file (is a directory): %s", path)
	}
	if info.Size() > maxReadSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d bytes): %s", info.Size(), maxReadSize, path)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("cannot read binary file: %s", path)
	}

	content := string(data)
	header := fmt.Sprintf("--- %s (%d lines, %d bytes) ---", path, countLines(content), len(data))
	return header + "\n" + content, nil
}

// Write writes content to a file, overwriting any previous content.
// Parent directories are only created when createDirs is set.
func (o *Ops) Write(path, content string, createDirs bool) (string, error) {
	resolved, err := o.sandbox.Validate(path)
	if err != nil {
		return "", err
	}

	if len(content) > maxWriteSize {
		return "", fmt.Errorf("content too large: %d bytes (max %d bytes)", len(content), maxWriteSize)
	}

	parent := filepath.Dir(resolved)
	if createDirs {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", fmt.Errorf("failed to create parent directories for %s: %w", path, err)
		}
	} else if _, err := os.Stat(parent); os.IsNotExist(err) {
		return "", fmt.Errorf("parent directory does not exist: %s", parent)
	}

	_, statErr := os.Stat(resolved)
	existed := statErr == nil

	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	action := "created"
	if existed {
		action = "updated"
	}
	return fmt.Sprintf("File %s: %s (%d lines, %d bytes)", action, path, countLines(content), len(content)), nil
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
