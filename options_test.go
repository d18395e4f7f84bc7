package vmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// TestMapFileOffsets checks that mapping different offsets of the same
// file returns the bytes at those offsets, including an offset that falls
// in the middle of an allocation-granularity unit.
func TestMapFileOffsets(t *testing.T) {
	path := writeTempFile(t, "this is a test")

	m1, f1, err := NewOptions().Len(4).Open(path)
	require.NoError(t, err)
	defer f1.Close()
	defer m1.Close()
	assert.Equal(t, "this", string(m1.Bytes()))

	m2, f2, err := NewOptions().Offset(10).Len(4).Open(path)
	require.NoError(t, err)
	defer f2.Close()
	defer m2.Close()
	assert.Equal(t, "test", string(m2.Bytes()))
}

// TestFlushThenReread checks that writing through a MapMut and flushing
// it synchronously makes the new bytes visible to a fresh read.
func TestFlushThenReread(t *testing.T) {
	path := writeTempFile(t, "this is a test")

	mm, f, err := NewOptions().Len(14).OpenMut(path)
	require.NoError(t, err)

	copy(mm.Bytes()[0:4], []byte("that"))
	require.NoError(t, mm.Flush(f, FlushSync))

	m := mm.IntoMap()
	assert.Equal(t, "that is a test", string(m.Bytes()))

	require.NoError(t, m.Close())
	require.NoError(t, f.Close())

	reread, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "that is a test", string(reread))
}

// TestIntoMapMutRequiresWriteProtection checks that converting a
// read-only Map into a MapMut fails with KindPermissionDenied.
func TestIntoMapMutRequiresWriteProtection(t *testing.T) {
	path := writeTempFile(t, "read only contents")

	m, f, err := NewOptions().Open(path)
	require.NoError(t, err)
	defer f.Close()
	defer m.Close()

	_, err = m.IntoMapMut()
	require.Error(t, err)

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, KindPermissionDenied, ve.Kind)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestIntoMapMutSucceedsWhenAlreadyWritable(t *testing.T) {
	path := writeTempFile(t, "writable contents")

	mm, f, err := NewOptions().Len(17).OpenMut(path)
	require.NoError(t, err)
	defer f.Close()

	roView := mm.IntoMap()
	writable, err := roView.IntoMapMut()
	require.NoError(t, err)
	defer writable.Close()
}

func TestOpenWithoutResizeBeyondFileFails(t *testing.T) {
	path := writeTempFile(t, "short")

	_, _, err := NewOptions().Len(100).Open(path)
	require.Error(t, err)

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, KindOutOfRange, ve.Kind)
}

func TestAllocAnonymous(t *testing.T) {
	mm, err := NewOptions().Len(4096).Alloc()
	require.NoError(t, err)
	defer mm.Close()

	b := mm.Bytes()
	require.Len(t, b, 4096)
	b[0] = 0x42
	assert.Equal(t, byte(0x42), b[0])
}
