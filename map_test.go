package vmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAdviseIsNeverAnError(t *testing.T) {
	mm, err := NewOptions().Len(4096).Alloc()
	require.NoError(t, err)
	defer mm.Close()

	for _, a := range []Advice{AdviceNormal, AdviceRandom, AdviceSequential, AdviceWillNeed, AdviceDontNeed} {
		assert.NoError(t, mm.Advise(a))
		assert.NoError(t, mm.AdviseRange(0, 4096, a))
	}
}

func TestMapCloseIsIdempotent(t *testing.T) {
	mm, err := NewOptions().Len(4096).Alloc()
	require.NoError(t, err)

	require.NoError(t, mm.Close())
	require.NoError(t, mm.Close())
}

func TestMapLenMatchesAllocation(t *testing.T) {
	mm, err := NewOptions().Len(100).Alloc()
	require.NoError(t, err)
	defer mm.Close()

	assert.GreaterOrEqual(t, mm.Len(), 100)
	assert.Equal(t, 0, mm.Len()%GetPageInfo().PageSize())
}
