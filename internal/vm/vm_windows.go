//go:build windows

package vm

import (
	"errors"

	"golang.org/x/sys/windows"
)

func wrapErrno(err error) error {
	if err == nil {
		return nil
	}
	var errno windows.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch errno {
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_INVALID_ACCESS:
		return joinSentinel(ErrPermissionDenied, errno)
	case windows.ERROR_INVALID_PARAMETER:
		return joinSentinel(ErrInvalidInput, errno)
	case windows.ERROR_NOT_ENOUGH_MEMORY, windows.ERROR_COMMITMENT_LIMIT, windows.ERROR_ALREADY_EXISTS:
		return joinSentinel(ErrAddressSpace, errno)
	default:
		return errno
	}
}

// Map creates a file mapping object and a view over it. opts.HasFD selects
// a file-backed mapping; an anonymous mapping is backed by the pagefile via
// INVALID_HANDLE_VALUE, matching the POSIX MAP_ANON path.
func Map(opts MapOptions) (uintptr, int, error) {
	if opts.Length <= 0 {
		return 0, 0, ErrInvalidInput
	}

	handle := windows.Handle(windows.InvalidHandle)
	if opts.HasFD {
		handle = windows.Handle(opts.FD)
	}

	prot := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if opts.Write || opts.COW {
		prot = windows.PAGE_READWRITE
		access = windows.FILE_MAP_READ | windows.FILE_MAP_WRITE
	}
	if opts.COW {
		prot = windows.PAGE_WRITECOPY
		access = windows.FILE_MAP_COPY
	}

	sizeHigh := uint32(uint64(opts.Offset+int64(opts.Length)) >> 32)
	sizeLow := uint32(uint64(opts.Offset + int64(opts.Length)))

	mapping, err := windows.CreateFileMapping(handle, nil, prot, sizeHigh, sizeLow, nil)
	if err != nil {
		return 0, 0, wrapErrno(err)
	}
	defer windows.CloseHandle(mapping)

	offHigh := uint32(uint64(opts.Offset) >> 32)
	offLow := uint32(uint64(opts.Offset))

	addr, err := windows.MapViewOfFile(mapping, access, offHigh, offLow, uintptr(opts.Length))
	if err != nil {
		return 0, 0, wrapErrno(err)
	}
	return addr, opts.Length, nil
}

// Unmap releases a view previously returned by Map or AllocRing.
func Unmap(addr uintptr, _ int) error {
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Protect changes the page protection of an existing view.
func Protect(addr uintptr, length int, write, exec bool) error {
	prot := uint32(windows.PAGE_READONLY)
	switch {
	case write && exec:
		prot = windows.PAGE_EXECUTE_READWRITE
	case write:
		prot = windows.PAGE_READWRITE
	case exec:
		prot = windows.PAGE_EXECUTE_READ
	}
	var old uint32
	if err := windows.VirtualProtect(addr, uintptr(length), prot, &old); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Flush writes dirty pages back to the mapped file. A sync flush additionally
// calls FlushFileBuffers on the caller-supplied handle once the view flush
// completes, matching FlushViewOfFile+FlushFileBuffers.
func Flush(addr uintptr, length int, fd uintptr, hasFD bool, mode FlushMode) error {
	if err := windows.FlushViewOfFile(addr, uintptr(length)); err != nil {
		return wrapErrno(err)
	}
	if mode == FlushSync && hasFD {
		if err := windows.FlushFileBuffers(windows.Handle(fd)); err != nil {
			return wrapErrno(err)
		}
	}
	return nil
}

// Advise is a no-op on Windows: there is no madvise analogue wired for the
// hints this library portably exposes.
func Advise(uintptr, int, Advice) error {
	return nil
}

// Lock pins the view in the working set.
func Lock(addr uintptr, length int) error {
	if err := windows.VirtualLock(addr, uintptr(length)); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Unlock reverses Lock.
func Unlock(addr uintptr, length int) error {
	if err := windows.VirtualUnlock(addr, uintptr(length)); err != nil {
		return wrapErrno(err)
	}
	return nil
}
