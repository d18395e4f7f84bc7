package vmap

import (
	"sync"

	"github.com/kalamay/vmap/internal/vm"
)

// PageInfo is a process-wide, lazily initialized record of the host's page
// size and allocation granularity. Both are powers of two; the allocation
// granularity is always greater than or equal to the page size (on Windows
// it is typically 64 KiB while the page size is 4 KiB).
type PageInfo struct {
	pageSize              int
	allocationGranularity int
}

var pageInfoOnce sync.Once
var pageInfoValue PageInfo

func loadPageInfo() PageInfo {
	pageInfoOnce.Do(func() {
		pageInfoValue = PageInfo{
			pageSize:              vm.PageSize(),
			allocationGranularity: vm.AllocationGranularity(),
		}
	})
	return pageInfoValue
}

// GetPageInfo returns the process-wide PageInfo, computing it on first use.
func GetPageInfo() PageInfo {
	return loadPageInfo()
}

// PageSize returns the host page size in bytes.
func (p PageInfo) PageSize() int { return p.pageSize }

// AllocationGranularity returns the host's minimum alignment for virtual
// address reservations.
func (p PageInfo) AllocationGranularity() int { return p.allocationGranularity }

// PageSize is a convenience free function equivalent to
// GetPageInfo().PageSize().
func PageSize() int { return loadPageInfo().PageSize() }

// AllocationGranularity is the free-function equivalent of
// GetPageInfo().AllocationGranularity().
func AllocationGranularity() int { return loadPageInfo().AllocationGranularity() }

func floorTo(x, n int) int {
	return x &^ (n - 1)
}

func ceilTo(x, n int) int {
	return floorTo(x+n-1, n)
}

// FloorPage rounds x down to the nearest multiple of the page size.
func (p PageInfo) FloorPage(x int) int { return floorTo(x, p.pageSize) }

// CeilPage rounds x up to the nearest multiple of the page size.
func (p PageInfo) CeilPage(x int) int { return ceilTo(x, p.pageSize) }

// FloorAlloc rounds x down to the nearest multiple of the allocation
// granularity.
func (p PageInfo) FloorAlloc(x int) int { return floorTo(x, p.allocationGranularity) }

// CeilAlloc rounds x up to the nearest multiple of the allocation
// granularity.
func (p PageInfo) CeilAlloc(x int) int { return ceilTo(x, p.allocationGranularity) }
