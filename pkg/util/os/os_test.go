package os

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b", "c"), 0755))
	for _, name := range []string{"z.txt", "a.pdf", "b/c/doc.docx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b", "c", "doc.docx"),
		filepath.Join(dir, "z.txt"),
	}, files)

	files, err = ListFiles(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.pdf")}, files)

	_, err = ListFiles(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	created, err := EnsureDir(dir, true)
	require.NoError(t, err)
	require.True(t, created)

	created, err = EnsureDir(dir, true)
	require.NoError(t, err)
	require.False(t, created)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0644))
	_, err = EnsureDir(dir, true)
	require.Error(t, err)

	_, err = EnsureDir(dir, false)
	require.NoError(t, err)
}
