package vmap

import (
	"os"
	"sync/atomic"

	"github.com/kalamay/vmap/internal/vm"
)

// Map is an owning, read-only handle to a mapped region. Its Close unmaps
// exactly the range the OS returned; Close is safe to call more than once.
type Map struct {
	// base/baseLen are exactly what the OS returned from mmap/MapViewOfFile
	// — the allocation-granularity-aligned range that Close must unmap.
	base    uintptr
	baseLen int
	// ptr/len are the logical view the caller asked for: base advanced by
	// however far the requested offset was past the nearest aligned
	// boundary below it, and the exact length requested. A caller-visible
	// offset need not itself be granularity-aligned; only the address the
	// OS is asked to map at must be.
	ptr        uintptr
	len        int
	protection Protection
	pages      PageInfo
	// closed is a pointer only so that struct-copying a Map never copies an
	// atomic.Bool value (go vet's copylocks check flags that). Conversions
	// between Map and MapMut allocate a fresh one for the new owner rather
	// than sharing this pointer.
	closed *atomic.Bool
}

func newMap(base uintptr, baseLen int, delta, length int, protection Protection) Map {
	return Map{
		base:       base,
		baseLen:    baseLen,
		ptr:        base + uintptr(delta),
		len:        length,
		protection: protection,
		pages:      GetPageInfo(),
		closed:     new(atomic.Bool),
	}
}

// Len returns the number of bytes covered by the mapping.
func (m *Map) Len() int { return m.len }

// Protection returns the access rights the mapping was created with.
func (m *Map) Protection() Protection { return m.protection }

// Span returns a borrowed, read-only view over the mapping. The Span must
// not be used after Close.
func (m *Map) Span() Span { return newSpan(m.ptr, m.len) }

// Bytes returns a []byte view over the mapping. Like Span, it must not be
// used after Close.
func (m *Map) Bytes() []byte { return m.Span().Bytes() }

// Advise hints the kernel about the intended access pattern for the whole
// mapping.
func (m *Map) Advise(a Advice) error {
	ptr, n := m.pageBounds(0, m.len)
	if err := vm.Advise(ptr, n, a.internal()); err != nil {
		return newError(OpAdvise, err)
	}
	return nil
}

// AdviseRange is Advise restricted to [offset, offset+length), rounded
// outward to page boundaries, matching the bound every facade advise call
// operates on.
func (m *Map) AdviseRange(offset, length int, a Advice) error {
	ptr, n := m.pageBounds(offset, length)
	if err := vm.Advise(ptr, n, a.internal()); err != nil {
		return newError(OpAdvise, err)
	}
	return nil
}

// Lock pins the whole mapping in RAM.
func (m *Map) Lock() error {
	ptr, n := m.pageBounds(0, m.len)
	if err := vm.Lock(ptr, n); err != nil {
		return newError(OpLock, err)
	}
	return nil
}

// LockRange is Lock restricted to a page-rounded sub-range.
func (m *Map) LockRange(offset, length int) error {
	ptr, n := m.pageBounds(offset, length)
	if err := vm.Lock(ptr, n); err != nil {
		return newError(OpLock, err)
	}
	return nil
}

// Unlock reverses Lock.
func (m *Map) Unlock() error {
	ptr, n := m.pageBounds(0, m.len)
	if err := vm.Unlock(ptr, n); err != nil {
		return newError(OpUnlock, err)
	}
	return nil
}

// UnlockRange reverses LockRange.
func (m *Map) UnlockRange(offset, length int) error {
	ptr, n := m.pageBounds(offset, length)
	if err := vm.Unlock(ptr, n); err != nil {
		return newError(OpUnlock, err)
	}
	return nil
}

// pageBounds rounds the absolute address range [ptr+offset, ptr+offset+length)
// outward to page boundaries, clamped to the OS-mapped range backing this
// Map. It works in absolute addresses rather than offsets relative to ptr
// because ptr itself need not be page-aligned — a caller's logical offset
// into a file is free to fall in the middle of a page.
func (m *Map) pageBounds(offset, length int) (uintptr, int) {
	pageSize := uintptr(m.pages.PageSize())
	absStart := m.ptr + uintptr(offset)
	absEnd := absStart + uintptr(length)
	start := absStart &^ (pageSize - 1)
	end := (absEnd + pageSize - 1) &^ (pageSize - 1)

	baseEnd := m.base + uintptr(m.baseLen)
	if start < m.base {
		start = m.base
	}
	if end > baseEnd {
		end = baseEnd
	}
	if start > end {
		start = end
	}
	return start, int(end - start)
}

// Close unmaps the region. It is idempotent; the second and later calls
// are no-ops, which is what makes double-unmap impossible.
func (m *Map) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if err := vm.Unmap(m.base, m.baseLen); err != nil {
		return newError(OpUnmap, err)
	}
	return nil
}

// IntoMapMut converts a Map into a MapMut without ever calling mprotect:
// it succeeds only if the mapping was already created with write-capable
// protection, and fails with KindPermissionDenied otherwise. This is a
// deliberate restriction — the protection established when the mapping was
// created is never silently upgraded.
func (m *Map) IntoMapMut() (MapMut, error) {
	if !m.protection.writable() {
		return MapMut{}, &Error{Op: OpProtect, Kind: KindPermissionDenied, Err: ErrPermissionDenied}
	}
	mm := MapMut{Map: Map{
		base: m.base, baseLen: m.baseLen, ptr: m.ptr, len: m.len,
		protection: m.protection, pages: m.pages, closed: new(atomic.Bool),
	}}
	m.closed.Store(true) // ownership moved; the original Map must not unmap.
	return mm, nil
}

// MapMut is the writable counterpart of Map.
type MapMut struct {
	Map
}

// SpanMut returns a borrowed, mutable view over the mapping.
func (m *MapMut) SpanMut() SpanMut { return newSpanMut(m.ptr, m.len) }

// Flush writes dirty pages in the whole mapping back to file, which is
// borrowed for the duration of the call and never retained.
func (m *MapMut) Flush(file *os.File, mode Flush) error {
	ptr, n := m.pageBounds(0, m.len)
	fd, hasFD := fileDescriptor(file)
	if err := vm.Flush(ptr, n, fd, hasFD, mode.internal()); err != nil {
		return newError(OpFlush, err)
	}
	return nil
}

// FlushRange is Flush restricted to a page-rounded sub-range.
func (m *MapMut) FlushRange(file *os.File, offset, length int, mode Flush) error {
	ptr, n := m.pageBounds(offset, length)
	fd, hasFD := fileDescriptor(file)
	if err := vm.Flush(ptr, n, fd, hasFD, mode.internal()); err != nil {
		return newError(OpFlush, err)
	}
	return nil
}

// IntoMap converts a MapMut into a read-only Map. Every writable
// protection already implies read access, so this direction never fails.
func (m *MapMut) IntoMap() Map {
	out := Map{
		base: m.base, baseLen: m.baseLen, ptr: m.ptr, len: m.len,
		protection: m.protection, pages: m.pages, closed: new(atomic.Bool),
	}
	m.closed.Store(true)
	return out
}

func fileDescriptor(f *os.File) (uintptr, bool) {
	if f == nil {
		return 0, false
	}
	return f.Fd(), true
}
