package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.sps")
	require.NoError(t, WriteFileAtomic(path, []byte("VALUE LABELS."), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "VALUE LABELS.", string(data))
}

func TestWriteAtomic_FailureKeepsOriginal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.sps")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	boom := errors.New("boom")
	err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, path, we.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nope", "out.sps")
	err := WriteFileAtomic(path, []byte("x"), 0o644)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
