//go:build unix

package vm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func wrapErrno(err error) error {
	if err == nil {
		return nil
	}
	errno, ok := err.(unix.Errno)
	if !ok {
		return err
	}
	switch errno {
	case unix.EACCES, unix.EPERM:
		return joinSentinel(ErrPermissionDenied, errno)
	case unix.EINVAL:
		return joinSentinel(ErrInvalidInput, errno)
	case unix.ENOMEM, unix.EEXIST:
		return joinSentinel(ErrAddressSpace, errno)
	case unix.ERANGE, unix.EFBIG:
		return joinSentinel(ErrOutOfRange, errno)
	default:
		return errno
	}
}

func mmapProt(write, exec, cow bool) int {
	prot := unix.PROT_READ
	if write || cow {
		prot |= unix.PROT_WRITE
	}
	if exec {
		prot |= unix.PROT_EXEC
	}
	return prot
}

// Map projects a file range, or an anonymous region when opts.HasFD is
// false, into the process address space.
func Map(opts MapOptions) (uintptr, int, error) {
	if opts.Length <= 0 {
		return 0, 0, ErrInvalidInput
	}
	prot := mmapProt(opts.Write, opts.Exec, opts.COW)
	flags := unix.MAP_PRIVATE
	if opts.Shared && !opts.COW {
		flags = unix.MAP_SHARED
	}
	fd := -1
	if opts.HasFD {
		fd = int(opts.FD)
	} else {
		flags |= unix.MAP_ANON
	}
	if opts.Populate {
		flags |= unix.MAP_POPULATE
	}
	b, err := unix.Mmap(fd, opts.Offset, opts.Length, prot, flags)
	if err != nil {
		return 0, 0, wrapErrno(err)
	}
	return uintptr(unsafe.Pointer(&b[0])), len(b), nil
}

// Unmap releases exactly the range previously returned by Map or AllocRing.
func Unmap(addr uintptr, length int) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	if err := unix.Munmap(b); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Protect changes the access rights of an existing mapping in place.
func Protect(addr uintptr, length int, write, exec bool) error {
	prot := unix.PROT_READ
	if write {
		prot |= unix.PROT_WRITE
	}
	if exec {
		prot |= unix.PROT_EXEC
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	if err := unix.Mprotect(b, prot); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Flush writes dirty pages back to the backing object. fd/hasFD are unused
// on POSIX: msync operates purely on the mapped address range.
func Flush(addr uintptr, length int, _ uintptr, _ bool, mode FlushMode) error {
	flags := unix.MS_ASYNC
	if mode == FlushSync {
		flags = unix.MS_SYNC
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	if err := unix.Msync(b, flags); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Advise gives the kernel a hint about the intended access pattern. An
// advice this OS does not implement is treated as a silent no-op.
func Advise(addr uintptr, length int, advice Advice) error {
	var a int
	switch advice {
	case AdviceNormal:
		a = unix.MADV_NORMAL
	case AdviceRandom:
		a = unix.MADV_RANDOM
	case AdviceSequential:
		a = unix.MADV_SEQUENTIAL
	case AdviceWillNeed:
		a = unix.MADV_WILLNEED
	case AdviceDontNeed:
		a = unix.MADV_DONTNEED
	default:
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	if err := unix.Madvise(b, a); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Lock pins the given range in RAM, refusing to let the kernel page it out.
func Lock(addr uintptr, length int) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	if err := unix.Mlock(b); err != nil {
		return wrapErrno(err)
	}
	return nil
}

// Unlock reverses Lock.
func Unlock(addr uintptr, length int) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	if err := unix.Munlock(b); err != nil {
		return wrapErrno(err)
	}
	return nil
}
