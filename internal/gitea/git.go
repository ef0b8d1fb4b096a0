package gitea

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/kube-agent/internal/sandbox"
)

// Git runs local git commands on working copies inside the sandbox.
// Every path argument is validated before git is invoked.
type Git struct {
	sandbox *sandbox.Sandbox
}

// NewGit creates a git runner confined to the given sandbox.
func NewGit(sb *sandbox.Sandbox) *Git {
	return &Git{sandbox: sb}
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(out.String())
		if detail == "" {
			return "", fmt.Errorf("git %s failed: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s failed: %s", args[0], detail)
	}
	return out.String(), nil
}

// Clone clones a repository into path. The target directory must not
// already exist.
func (g *Git) Clone(ctx context.Context, url, path string) (string, error) {
	resolved, err := g.sandbox.Validate(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(resolved); err == nil {
		return "", fmt.Errorf("target path %q already exists", path)
	}

	if _, err := g.run(ctx, "", "clone", url, resolved); err != nil {
		return "", err
	}
	return fmt.Sprintf("Cloned %s into %s.", url, resolved), nil
}

// Pull runs git pull in an existing working copy.
func (g *Git) Pull(ctx context.Context, path string) (string, error) {
	resolved, err := g.workingCopy(path)
	if err != nil {
		return "", err
	}

	out, err := g.run(ctx, resolved, "pull")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("git pull in %s:\n%s", resolved, strings.TrimSpace(out)), nil
}

// Status runs git status --short in a working copy. A clean tree is
// reported explicitly.
func (g *Git) Status(ctx context.Context, path string) (string, error) {
	resolved, err := g.workingCopy(path)
	if err != nil {
		return "", err
	}

	out, err := g.run(ctx, resolved, "status", "--short")
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return fmt.Sprintf("Working copy %s is clean.", resolved), nil
	}
	return fmt.Sprintf("Changes in %s:\n%s", resolved, trimmed), nil
}

// CommitAndPush stages everything, commits with the given message, and
// pushes. Committing nothing is an error git reports by itself.
func (g *Git) CommitAndPush(ctx context.Context, path, message string) (string, error) {
	resolved, err := g.workingCopy(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit message must not be empty")
	}

	if _, err := g.run(ctx, resolved, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := g.run(ctx, resolved, "commit", "-m", message); err != nil {
		return "", err
	}
	out, err := g.run(ctx, resolved, "push")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Committed and pushed from %s.\n%s", resolved, strings.TrimSpace(out)), nil
}

// workingCopy validates the path and checks it holds a git repository.
func (g *Git) workingCopy(path string) (string, error) {
	resolved, err := g.sandbox.Validate(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("path %q does not exist", path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", path)
	}
	if _, err := os.Stat(filepath.Join(resolved, ".git")); err != nil {
		return "", fmt.Errorf("path %q is not a git working copy", path)
	}
	return resolved, nil
}
