//go:build windows

package vm

import "golang.org/x/sys/windows"

// PageSize and AllocationGranularity both come from a single GetSystemInfo
// call; Windows reports them as two distinct fields because the allocation
// granularity (typically 64 KiB) is coarser than the page size (4 KiB).
func PageSize() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int(info.PageSize)
}

func AllocationGranularity() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int(info.AllocationGranularity)
}
