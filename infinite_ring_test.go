package vmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInfiniteRingOverwrite checks that a producer that outruns the
// consumer loses the oldest bytes rather than blocking, and that Readable
// always reports a clamped view of at most Capacity().
func TestInfiniteRingOverwrite(t *testing.T) {
	r, err := NewInfiniteRing(4096)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 4096, r.Capacity())

	src := make([]byte, 10000)
	for i := range src {
		src[i] = byte(i % 256)
	}
	n := r.WriteSlice(src)
	require.Equal(t, 10000, n)

	assert.Equal(t, 4096, r.Readable())
	assert.Equal(t, uint64(10000-4096), r.Lost())

	got := make([]byte, r.Readable())
	read := r.ReadSlice(got)
	require.Equal(t, 4096, read)
	assert.Equal(t, src[5904:10000], got)
}

func TestInfiniteRingNeverBlocksProducer(t *testing.T) {
	r, err := NewInfiniteRing(1024)
	require.NoError(t, err)
	defer r.Close()

	chunk := make([]byte, 1024)
	for i := 0; i < 100; i++ {
		n := r.WriteSlice(chunk)
		assert.Equal(t, len(chunk), n)
	}
}

func TestInfiniteRingNoLossWhenConsumerKeepsUp(t *testing.T) {
	r, err := NewInfiniteRing(256)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 64)
	for i := 0; i < 50; i++ {
		for j := range buf {
			buf[j] = byte(i)
		}
		r.WriteSlice(buf)

		out := make([]byte, 64)
		n := r.ReadSlice(out)
		require.Equal(t, 64, n)
		assert.Equal(t, buf, out)
	}
	assert.Equal(t, uint64(0), r.Lost())
}
