//go:build windows

package vm

import (
	"golang.org/x/sys/windows"
)

var (
	modkernel32         = windows.NewLazySystemDLL("kernel32.dll")
	procMapViewOfFileEx = modkernel32.NewProc("MapViewOfFileEx")
)

func mapViewOfFileEx(handle windows.Handle, access uint32, offsetHigh, offsetLow uint32, length uintptr, baseAddr uintptr) (uintptr, error) {
	r0, _, e1 := procMapViewOfFileEx.Call(
		uintptr(handle),
		uintptr(access),
		uintptr(offsetHigh),
		uintptr(offsetLow),
		length,
		baseAddr,
	)
	if r0 == 0 {
		return 0, wrapErrno(e1)
	}
	return r0, nil
}

// AllocRing reserves a contiguous 2*len region of address space and maps a
// single pagefile-backed mapping object into both halves, so base[i] and
// base[i+len] alias the same physical page for every i in [0, len).
//
// Windows gives no atomic "reserve and map at this address" primitive for
// file mappings the way MAP_FIXED does on POSIX, so the address is found by
// reserving a candidate range, releasing it, and racing to map both halves
// into it before another allocation lands there. A failed race unmaps
// whatever succeeded and retries.
func AllocRing(length int) (uintptr, error) {
	if length <= 0 {
		return 0, ErrInvalidInput
	}

	full := uint64(length) * 2
	mapping, err := windows.CreateFileMapping(
		windows.Handle(windows.InvalidHandle),
		nil,
		windows.PAGE_READWRITE,
		uint32(full>>32),
		uint32(full),
		nil,
	)
	if err != nil {
		return 0, wrapErrno(err)
	}
	defer windows.CloseHandle(mapping)

	const access = windows.FILE_MAP_READ | windows.FILE_MAP_WRITE
	const maxAttempts = 8

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := windows.VirtualAlloc(0, uintptr(full), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
		if err != nil {
			lastErr = wrapErrno(err)
			continue
		}
		if err := windows.VirtualFree(candidate, 0, windows.MEM_RELEASE); err != nil {
			lastErr = wrapErrno(err)
			continue
		}

		first, err := mapViewOfFileEx(mapping, access, 0, 0, uintptr(length), candidate)
		if err != nil {
			lastErr = err
			continue
		}
		second, err := mapViewOfFileEx(mapping, access, 0, 0, uintptr(length), candidate+uintptr(length))
		if err != nil {
			windows.UnmapViewOfFile(first)
			lastErr = err
			continue
		}
		_ = second
		return first, nil
	}
	return 0, joinSentinel(ErrAddressSpace, lastErr)
}

// FreeRing unmaps both halves of a ring allocated by AllocRing.
func FreeRing(base uintptr, length int) error {
	if err := windows.UnmapViewOfFile(base); err != nil {
		return wrapErrno(err)
	}
	if err := windows.UnmapViewOfFile(base + uintptr(length)); err != nil {
		return wrapErrno(err)
	}
	return nil
}
