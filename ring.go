package vmap

import (
	"sync/atomic"
	"unsafe"

	"github.com/kalamay/vmap/internal/vm"
)

// Ring is a finite single-producer, single-consumer byte queue backed by a
// double-mapped anonymous region: the capacity is mapped twice into
// adjacent virtual addresses, so base[i] and base[i+Capacity()] alias the
// same physical byte. A write or read that straddles the end of the
// window is always a single contiguous memcpy — there is no split-buffer
// case to handle.
//
// Exactly one goroutine may write and exactly one may read; the two may
// run on different goroutines. rpos and wpos are monotonically increasing
// 64-bit counters; readable is wpos-rpos and writable is length-readable.
type Ring struct {
	base   uintptr
	length int
	rpos   atomic.Uint64
	wpos   atomic.Uint64
}

// NewRing allocates a Ring whose capacity is requested rounded up to the
// host's allocation granularity.
func NewRing(requested int) (*Ring, error) {
	pages := GetPageInfo()
	length := pages.CeilAlloc(requested)
	if length <= 0 {
		length = pages.AllocationGranularity()
	}
	base, err := vm.AllocRing(length)
	if err != nil {
		return nil, newError(OpRingAllocate, err)
	}
	return &Ring{base: base, length: length}, nil
}

// Capacity returns the ring's usable byte capacity, which is always a
// positive multiple of the allocation granularity.
func (r *Ring) Capacity() int { return r.length }

// Readable returns the number of bytes available to read right now.
func (r *Ring) Readable() int {
	return int(r.wpos.Load() - r.rpos.Load())
}

// Writable returns the number of bytes that can be written right now
// without overwriting unread data.
func (r *Ring) Writable() int {
	return r.length - r.Readable()
}

// IsEmpty reports whether there is nothing to read.
func (r *Ring) IsEmpty() bool { return r.Readable() == 0 }

// IsFull reports whether there is no room left to write.
func (r *Ring) IsFull() bool { return r.Readable() == r.length }

// offset computes the in-window byte offset for a monotonic cursor. It
// uses mod, not a power-of-two mask, because Capacity() is not guaranteed
// to be a power of two — only a multiple of the allocation granularity.
func (r *Ring) offset(pos uint64) int {
	return int(pos % uint64(r.length))
}

func (r *Ring) window(off, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r.base+uintptr(off))), n)
}

// WriteSlice copies min(len(src), Writable()) bytes into the ring and
// returns the count. It never blocks; if the ring is full it returns 0.
func (r *Ring) WriteSlice(src []byte) int {
	n := len(src)
	if w := r.Writable(); n > w {
		n = w
	}
	if n == 0 {
		return 0
	}
	wpos := r.wpos.Load()
	off := r.offset(wpos)
	copy(r.window(off, n), src[:n])
	r.wpos.Store(wpos + uint64(n))
	return n
}

// ReadSlice copies min(len(dst), Readable()) bytes out of the ring and
// returns the count. It never blocks; if the ring is empty it returns 0.
func (r *Ring) ReadSlice(dst []byte) int {
	n := len(dst)
	if rd := r.Readable(); n > rd {
		n = rd
	}
	if n == 0 {
		return 0
	}
	rpos := r.rpos.Load()
	off := r.offset(rpos)
	copy(dst[:n], r.window(off, n))
	r.rpos.Store(rpos + uint64(n))
	return n
}

// Peek exposes up to Readable() contiguous bytes starting at the read
// cursor without advancing it. The aliased second half makes this safe
// even when the readable region wraps past the end of the window.
func (r *Ring) Peek() []byte {
	readable := r.Readable()
	if readable == 0 {
		return nil
	}
	off := r.offset(r.rpos.Load())
	return r.window(off, readable)
}

// WriteOffset returns a SpanMut over up to length writable bytes starting
// at the write cursor, without advancing it. Call Produce once the caller
// has filled in some prefix of the span.
func (r *Ring) WriteOffset(length int) SpanMut {
	if w := r.Writable(); length > w {
		length = w
	}
	if length <= 0 {
		return SpanMut{}
	}
	off := r.offset(r.wpos.Load())
	return newSpanMut(r.base+uintptr(off), length)
}

// Produce advances the write cursor by n, which must not exceed the
// length most recently returned by WriteOffset.
func (r *Ring) Produce(n int) {
	r.wpos.Store(r.wpos.Load() + uint64(n))
}

// ReadOffset returns a Span over up to length readable bytes starting at
// the read cursor, without advancing it. Call Consume once the caller has
// consumed some prefix of the span.
func (r *Ring) ReadOffset(length int) Span {
	if rd := r.Readable(); length > rd {
		length = rd
	}
	if length <= 0 {
		return Span{}
	}
	off := r.offset(r.rpos.Load())
	return newSpan(r.base+uintptr(off), length)
}

// Consume advances the read cursor by n, which must not exceed the length
// most recently returned by ReadOffset or Peek.
func (r *Ring) Consume(n int) {
	r.rpos.Store(r.rpos.Load() + uint64(n))
}

// Close releases both halves of the double mapping. It is idempotent.
func (r *Ring) Close() error {
	base := r.base
	if base == 0 {
		return nil
	}
	r.base = 0
	if err := vm.FreeRing(base, r.length); err != nil {
		return newError(OpRingDeallocate, err)
	}
	return nil
}

var (
	_ SeqReader = (*Ring)(nil)
	_ SeqWriter = (*Ring)(nil)
)
