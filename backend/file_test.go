package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileBackend(t *testing.T, size int64) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vdev.img")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	b, err := OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestFileReadWriteRoundTrip(t *testing.T) {
	b := newTestFileBackend(t, 1<<20)

	in := []byte("vdev on disk")
	n, err := b.WriteAt(in, 8192)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)

	out := make([]byte, len(in))
	n, err = b.ReadAt(out, 8192)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, in, out)
}

func TestFileSizeMatchesRegularFile(t *testing.T) {
	b := newTestFileBackend(t, 65536)
	assert.Equal(t, int64(65536), b.Size())
}
