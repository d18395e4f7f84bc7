//go:build unix

package vm

import "golang.org/x/sys/unix"

// PageSize returns the host page size in bytes.
func PageSize() int {
	return unix.Getpagesize()
}

// AllocationGranularity on POSIX is the page size itself; there is no
// coarser reservation unit the way Windows imposes one.
func AllocationGranularity() int {
	return PageSize()
}
