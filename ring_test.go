package vmap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRingCapacityRoundsUpToAllocationGranularity(t *testing.T) {
	r, err := NewRing(5000)
	require.NoError(t, err)
	defer r.Close()

	granularity := GetPageInfo().AllocationGranularity()
	assert.Equal(t, 0, r.Capacity()%granularity)
	assert.GreaterOrEqual(t, r.Capacity(), 5000)
	assert.Less(t, r.Capacity(), 5000+granularity)
}

func TestRingEmptyAndFull(t *testing.T) {
	r, err := NewRing(16)
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.IsEmpty())
	assert.False(t, r.IsFull())

	filler := make([]byte, r.Capacity())
	n := r.WriteSlice(filler)
	assert.Equal(t, r.Capacity(), n)
	assert.True(t, r.IsFull())
	assert.Equal(t, 0, r.WriteSlice([]byte{1}))
}

// TestRingDoubleMappingAliases checks that writing at base[i] makes the
// same byte visible at base[i+Capacity()], and vice versa.
func TestRingDoubleMappingAliases(t *testing.T) {
	r, err := NewRing(GetPageInfo().AllocationGranularity())
	require.NoError(t, err)
	defer r.Close()

	c := r.Capacity()
	first := r.window(0, c)
	second := r.window(c, c)

	first[0] = 0x11
	assert.Equal(t, byte(0x11), second[0])

	second[c-1] = 0x22
	assert.Equal(t, byte(0x22), first[c-1])
}

// TestRingWrapAroundLines writes lines into a ring requested at 4000 bytes
// until 20 or fewer bytes stay writable, reads back the first two lines in
// order, and checks that the next line then fits.
func TestRingWrapAroundLines(t *testing.T) {
	r, err := NewRing(4000)
	require.NoError(t, err)
	defer r.Close()

	var written [][]byte
	i := 1
	for r.Writable() > 20 {
		line := []byte(fmt.Sprintf("this is test line %d\n", i))
		n := r.WriteSlice(line)
		if n < len(line) {
			break
		}
		written = append(written, line)
		i++
	}
	require.GreaterOrEqual(t, len(written), 2)

	buf := make([]byte, len(written[0]))
	n := r.ReadSlice(buf)
	require.Equal(t, len(written[0]), n)
	assert.Equal(t, "this is test line 1\n", string(buf))

	buf2 := make([]byte, len(written[1]))
	n = r.ReadSlice(buf2)
	require.Equal(t, len(written[1]), n)
	assert.Equal(t, "this is test line 2\n", string(buf2))

	nextLine := []byte(fmt.Sprintf("this is test line %d\n", i))
	n = r.WriteSlice(nextLine)
	assert.Equal(t, len(nextLine), n)
}

func TestRingSPSCChecksum(t *testing.T) {
	r, err := NewRing(64 * 1024)
	require.NoError(t, err)
	defer r.Close()

	const total = 4 << 20
	var g errgroup.Group

	g.Go(func() error {
		var sent int
		chunk := make([]byte, 4096)
		for i := range chunk {
			chunk[i] = byte(i)
		}
		for sent < total {
			n := r.WriteSlice(chunk[:min(len(chunk), total-sent)])
			sent += n
		}
		return nil
	})

	g.Go(func() error {
		var received int
		buf := make([]byte, 4096)
		for received < total {
			n := r.ReadSlice(buf)
			if n == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				want := byte((received + i) % 4096)
				if buf[i] != want {
					return fmt.Errorf("mismatch at %d: got %d want %d", received+i, buf[i], want)
				}
			}
			received += n
		}
		return nil
	})

	require.NoError(t, g.Wait())
}
