//go:build unix

package vm

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// shmBacking opens a short-lived, already-unlinked shared memory object of
// the given size and returns its file descriptor. The caller is responsible
// for closing it once both ring mappings exist.
//
// memfd_create is tried first (Linux); everywhere else falls back to a
// temp file that is unlinked immediately after opening, which keeps the
// backing object from ever being visible in the filesystem namespace.
func shmBacking(size int) (int, error) {
	if fd, err := unix.MemfdCreate("vmap-ring", 0); err == nil {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			unix.Close(fd)
			return 0, wrapErrno(err)
		}
		return fd, nil
	}

	f, err := os.CreateTemp("", "vmap-ring-*")
	if err != nil {
		return 0, fmt.Errorf("vm: open ring backing: %w", err)
	}
	fd := int(f.Fd())
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return 0, fmt.Errorf("vm: unlink ring backing: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		f.Close()
		return 0, wrapErrno(err)
	}
	return fd, nil
}

// mmapAt maps exactly at addr with MAP_FIXED, bypassing the package-level
// Map helper because golang.org/x/sys/unix.Mmap never lets the caller pick
// an address.
func mmapAt(addr uintptr, length int, prot, flags, fd int, offset int64) (uintptr, error) {
	got, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(length), uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return 0, wrapErrno(errno)
	}
	return got, nil
}

// AllocRing reserves a contiguous 2*len virtual address range and maps the
// same backing object into both halves, so base[i] and base[i+len] alias
// the same physical byte for every i in [0, len). The backing descriptor
// never escapes this function.
func AllocRing(length int) (uintptr, error) {
	if length <= 0 {
		return 0, ErrInvalidInput
	}

	fd, err := shmBacking(length)
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)

	const maxAttempts = 8
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		reserved, err := unix.Mmap(-1, 0, 2*length, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
		if err != nil {
			return 0, wrapErrno(err)
		}
		base := uintptr(unsafe.Pointer(&reserved[0]))

		if _, err := mmapAt(base, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_FIXED, fd, 0); err != nil {
			unix.Munmap(reserved)
			lastErr = err
			continue
		}
		if _, err := mmapAt(base+uintptr(length), length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_FIXED, fd, 0); err != nil {
			unix.Munmap(reserved)
			lastErr = err
			continue
		}
		return base, nil
	}
	return 0, joinSentinel(ErrAddressSpace, lastErr)
}

// FreeRing unmaps both halves of a ring allocated by AllocRing.
func FreeRing(base uintptr, length int) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), 2*length)
	if err := unix.Munmap(b); err != nil {
		return wrapErrno(err)
	}
	return nil
}
