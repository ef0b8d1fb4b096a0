package fileops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/kube-agent/internal/sandbox"
)

func newOps(t *testing.T) (*Ops, string) {
	t.Helper()
	root := t.TempDir()
	sb, err := sandbox.New([]string{root})
	require.NoError(t, err)
	return New(sb), root
}

func TestListDirectory(t *testing.T) {
	ops, root := newOps(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "charts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "values.yaml"), []byte("a: 1\n"), 0o644))

	out, err := ops.List(root, false)
	require.NoError(t, err)
	assert.Contains(t, out, "charts/")
	assert.Contains(t, out, "values.yaml")
}

func TestListRecursive(t *testing.T) {
	ops, root := newOps(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "c.txt"), []byte("x"), 0o644))

	out, err := ops.List(root, true)
	require.NoError(t, err)
	assert.Contains(t, out, "[recursive]")
	assert.Contains(t, out, filepath.Join("a", "b", "c.txt"))
}

func TestListMissingDirectory(t *testing.T) {
	ops, root := newOps(t)

	_, err := ops.List(filepath.Join(root, "nope"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestListOutsideSandboxNeverTouchesDisk(t *testing.T) {
	ops, _ := newOps(t)

	_, err := ops.List("/etc", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestReadFile(t *testing.T) {
	ops, root := newOps(t)

	path := filepath.Join(root, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld\n"), 0o644))

	out, err := ops.Read(path)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 lines, 12 bytes)")
	assert.Contains(t, out, "hello\nworld\n")
}

func TestReadRejectsBinary(t *testing.T) {
	ops, root := newOps(t)

	path := filepath.Join(root, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x01}, 0o644))

	_, err := ops.Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary")
}

func TestReadOutsideSandbox(t *testing.T) {
	ops, _ := newOps(t)

	_, err := ops.Read("/etc/passwd")
	assert.Error(t, err)
}

func TestWriteCreatesAndUpdates(t *testing.T) {
	ops, root := newOps(t)
	path := filepath.Join(root, "f.txt")

	out, err := ops.Write(path, "one\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, "created")

	out, err = ops.Write(path, "two\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, "updated")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(data))
}

func TestWriteRequiresParentUnlessCreateDirs(t *testing.T) {
	ops, root := newOps(t)
	path := filepath.Join(root, "deep", "nested", "f.txt")

	_, err := ops.Write(path, "content", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent directory")

	_, err = ops.Write(path, "content", true)
	require.NoError(t, err)
}

func TestWriteOutsideSandboxTraversal(t *testing.T) {
	ops, root := newOps(t)

	_, err := ops.Write(filepath.Join(root, "..", "escape.txt"), "x", true)
	require.Error(t, err)

	// nothing may have been written outside the root
	_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
