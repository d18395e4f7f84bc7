package vmap

import (
	"fmt"
	"unsafe"
)

// Span is a borrowed, immutable view over a raw address and length. It
// does not own the underlying memory and outlives nothing; the caller is
// responsible for ensuring the backing mapping stays alive for as long as
// the Span is used.
type Span struct {
	ptr uintptr
	len int
}

func newSpan(ptr uintptr, length int) Span {
	return Span{ptr: ptr, len: length}
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.len }

// Ptr returns the raw base address of the span.
func (s Span) Ptr() uintptr { return s.ptr }

// Bytes returns a []byte view over the span's memory. The slice is only
// valid for as long as the backing mapping is alive.
func (s Span) Bytes() []byte {
	if s.len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(s.ptr)), s.len)
}

func (s Span) checkRange(off, n int) {
	if off < 0 || n < 0 || off+n > s.len {
		panic(fmt.Sprintf("vmap: span index out of range: off=%d n=%d len=%d", off, n, s.len))
	}
}

// At returns the byte at off, panicking if off is out of range.
func (s Span) At(off int) byte {
	s.checkRange(off, 1)
	return *(*byte)(unsafe.Pointer(s.ptr + uintptr(off)))
}

// Slice returns a sub-Span covering [off, off+n).
func (s Span) Slice(off, n int) Span {
	s.checkRange(off, n)
	return Span{ptr: s.ptr + uintptr(off), len: n}
}

// ReadUnaligned reads a value of type T at byte offset off without
// requiring off to satisfy T's natural alignment.
func ReadUnaligned[T any](s Span, off int) T {
	var v T
	s.checkRange(off, int(unsafe.Sizeof(v)))
	return *(*T)(unsafe.Pointer(s.ptr + uintptr(off)))
}

// ReadVolatile reads a value of type T at byte offset off, preventing the
// compiler from fusing or reordering the load with adjacent accesses. off
// must satisfy T's natural alignment.
func ReadVolatile[T any](s Span, off int) T {
	var v T
	s.checkRange(off, int(unsafe.Sizeof(v)))
	p := (*T)(unsafe.Pointer(s.ptr + uintptr(off)))
	return volatileLoad(p)
}

// SpanMut is the mutable counterpart of Span: the same borrowed,
// non-owning view, but permitting writes.
type SpanMut struct {
	Span
}

func newSpanMut(ptr uintptr, length int) SpanMut {
	return SpanMut{Span: newSpan(ptr, length)}
}

// SetAt writes the byte at off, panicking if off is out of range.
func (s SpanMut) SetAt(off int, b byte) {
	s.checkRange(off, 1)
	*(*byte)(unsafe.Pointer(s.ptr + uintptr(off))) = b
}

// SliceMut returns a mutable sub-SpanMut covering [off, off+n).
func (s SpanMut) SliceMut(off, n int) SpanMut {
	s.checkRange(off, n)
	return SpanMut{Span: Span{ptr: s.ptr + uintptr(off), len: n}}
}

// WriteUnaligned writes v at byte offset off without requiring off to
// satisfy T's natural alignment.
func WriteUnaligned[T any](s SpanMut, off int, v T) {
	s.checkRange(off, int(unsafe.Sizeof(v)))
	*(*T)(unsafe.Pointer(s.ptr + uintptr(off))) = v
}

// WriteVolatile writes v at byte offset off, preventing the compiler from
// fusing or reordering the store with adjacent accesses. off must satisfy
// T's natural alignment.
func WriteVolatile[T any](s SpanMut, off int, v T) {
	s.checkRange(off, int(unsafe.Sizeof(v)))
	p := (*T)(unsafe.Pointer(s.ptr + uintptr(off)))
	volatileStore(p, v)
}
