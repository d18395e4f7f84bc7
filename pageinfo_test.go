package vmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageInfoPowersOfTwo(t *testing.T) {
	info := GetPageInfo()

	assert.Greater(t, info.PageSize(), 0)
	assert.Greater(t, info.AllocationGranularity(), 0)
	assert.Equal(t, 0, info.PageSize()&(info.PageSize()-1), "page size must be a power of two")
	assert.Equal(t, 0, info.AllocationGranularity()&(info.AllocationGranularity()-1), "allocation granularity must be a power of two")
	assert.GreaterOrEqual(t, info.AllocationGranularity(), info.PageSize())
}

func TestPageInfoRounding(t *testing.T) {
	info := GetPageInfo()
	ps := info.PageSize()

	assert.Equal(t, 0, info.FloorPage(0))
	assert.Equal(t, ps, info.CeilPage(1))
	assert.Equal(t, ps, info.FloorPage(ps))
	assert.Equal(t, ps, info.CeilPage(ps))
	assert.Equal(t, 2*ps, info.CeilPage(ps+1))
}

func TestFreeFunctionsMatchPageInfo(t *testing.T) {
	info := GetPageInfo()
	assert.Equal(t, info.PageSize(), PageSize())
	assert.Equal(t, info.AllocationGranularity(), AllocationGranularity())
}
