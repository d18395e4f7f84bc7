package vmap

import (
	"sync/atomic"
	"unsafe"

	"github.com/kalamay/vmap/internal/vm"
)

// InfiniteRing shares Ring's double-mapped layout but never blocks the
// producer: once wpos runs more than Capacity() ahead of rpos, the reader
// silently loses whatever the producer has since overwritten. Readable
// always reports a clamped view of at most Capacity() bytes; Lost reports
// the cumulative number of bytes that were overwritten before being read.
type InfiniteRing struct {
	base   uintptr
	length int
	rpos   atomic.Uint64
	wpos   atomic.Uint64
	lost   atomic.Uint64
}

// NewInfiniteRing allocates an InfiniteRing whose capacity is requested
// rounded up to the host's allocation granularity.
func NewInfiniteRing(requested int) (*InfiniteRing, error) {
	pages := GetPageInfo()
	length := pages.CeilAlloc(requested)
	if length <= 0 {
		length = pages.AllocationGranularity()
	}
	base, err := vm.AllocRing(length)
	if err != nil {
		return nil, newError(OpRingAllocate, err)
	}
	return &InfiniteRing{base: base, length: length}, nil
}

// Capacity returns the ring's usable byte capacity.
func (r *InfiniteRing) Capacity() int { return r.length }

// Lost returns the cumulative number of bytes that were overwritten by the
// producer before ever being read.
func (r *InfiniteRing) Lost() uint64 { return r.lost.Load() }

// sync clamps rpos so that wpos-rpos never exceeds Capacity(), recording
// any newly lost bytes, and returns the resulting readable count.
func (r *InfiniteRing) sync() int {
	wpos := r.wpos.Load()
	rpos := r.rpos.Load()
	diff := wpos - rpos
	if diff > uint64(r.length) {
		skip := diff - uint64(r.length)
		rpos += skip
		r.rpos.Store(rpos)
		r.lost.Add(skip)
		diff = uint64(r.length)
	}
	return int(diff)
}

// Readable returns the number of bytes available to read right now, never
// more than Capacity().
func (r *InfiniteRing) Readable() int { return r.sync() }

// IsEmpty reports whether there is nothing to read.
func (r *InfiniteRing) IsEmpty() bool { return r.Readable() == 0 }

func (r *InfiniteRing) offset(pos uint64) int {
	return int(pos % uint64(r.length))
}

func (r *InfiniteRing) window(off, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r.base+uintptr(off))), n)
}

// WriteSlice copies all of src into the ring and always succeeds: if src
// is longer than Capacity(), it is written in Capacity()-sized chunks, and
// every unread byte that a later chunk overwrites is counted as lost.
func (r *InfiniteRing) WriteSlice(src []byte) int {
	remaining := src
	for len(remaining) > 0 {
		n := len(remaining)
		if n > r.length {
			n = r.length
		}
		wpos := r.wpos.Load()
		off := r.offset(wpos)
		copy(r.window(off, n), remaining[:n])
		r.wpos.Store(wpos + uint64(n))
		remaining = remaining[n:]
	}
	return len(src)
}

// ReadSlice copies min(len(dst), Readable()) bytes out of the ring and
// returns the count.
func (r *InfiniteRing) ReadSlice(dst []byte) int {
	readable := r.sync()
	n := len(dst)
	if n > readable {
		n = readable
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
// cursor without advancing it.
func (r *InfiniteRing) Peek() []byte {
	readable := r.sync()
	if readable == 0 {
		return nil
	}
	off := r.offset(r.rpos.Load())
	return r.window(off, readable)
}

// WriteOffset returns a SpanMut over exactly length bytes starting at the
// write cursor, without advancing it. length must not exceed Capacity().
func (r *InfiniteRing) WriteOffset(length int) SpanMut {
	if length > r.length {
		length = r.length
	}
	if length <= 0 {
		return SpanMut{}
	}
	off := r.offset(r.wpos.Load())
	return newSpanMut(r.base+uintptr(off), length)
}

// Produce advances the write cursor by n.
func (r *InfiniteRing) Produce(n int) {
	r.wpos.Store(r.wpos.Load() + uint64(n))
}

// ReadOffset returns a Span over up to length readable bytes starting at
// the read cursor, without advancing it.
func (r *InfiniteRing) ReadOffset(length int) Span {
	readable := r.sync()
	if length > readable {
		length = readable
	}
	if length <= 0 {
		return Span{}
	}
	off := r.offset(r.rpos.Load())
	return newSpan(r.base+uintptr(off), length)
}

// Consume advances the read cursor by n.
func (r *InfiniteRing) Consume(n int) {
	r.rpos.Store(r.rpos.Load() + uint64(n))
}

// Close releases both halves of the double mapping. It is idempotent.
func (r *InfiniteRing) Close() error {
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
	_ SeqReader = (*InfiniteRing)(nil)
	_ SeqWriter = (*InfiniteRing)(nil)
)
