// Package testhelpers provides common helper functions for tests
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeTempDir returns t.TempDir() with symlinks resolved. Some platforms put
// temp directories behind a symlink, which safefileio rejects.
func SafeTempDir(t testing.TB) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// WriteFile creates name with content in a fresh SafeTempDir and returns its path.
func WriteFile(t testing.TB, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(SafeTempDir(t), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}
