package vfile

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regwalk/internal/mmfile"
)

func TestMemoryReadersAreIndependent(t *testing.T) {
	b := NewMemory([]byte("0123456789"))
	assert.Equal(t, int64(10), b.Size())

	r1, err := b.Open()
	require.NoError(t, err)
	r2, err := b.Open()
	require.NoError(t, err)

	_, err = r1.Seek(5, io.SeekStart)
	require.NoError(t, err)

	got := make([]byte, 3)
	_, err = io.ReadFull(r2, got)
	require.NoError(t, err)
	assert.Equal(t, "012", string(got))

	_, err = io.ReadFull(r1, got)
	require.NoError(t, err)
	assert.Equal(t, "567", string(got))

	require.NoError(t, r1.Close())
	require.NoError(t, r2.Close())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.dat")
	require.NoError(t, os.WriteFile(path, []byte("regf-data"), 0o644))

	f, err := NewFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	assert.Equal(t, int64(9), f.Size())

	r, err := f.Open()
	require.NoError(t, err)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "regf-data", string(all))

	// Closing the builder keeps the open reader usable.
	require.NoError(t, f.Close())
	_, err = r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	head := make([]byte, 4)
	_, err = io.ReadFull(r, head)
	require.NoError(t, err)
	assert.Equal(t, "regf", string(head))
	require.NoError(t, r.Close())

	_, err = f.Open()
	require.ErrorIs(t, err, mmfile.ErrClosed)
}

func TestNewFileMissing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
