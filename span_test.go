package vmap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintptrOf(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

func backingBuffer(t *testing.T, size int) []byte {
	t.Helper()
	buf := make([]byte, size)
	return buf
}

func spanOver(buf []byte) Span {
	return newSpan(uintptrOf(buf), len(buf))
}

func spanMutOver(buf []byte) SpanMut {
	return newSpanMut(uintptrOf(buf), len(buf))
}

func TestSpanAtAndSlice(t *testing.T) {
	buf := backingBuffer(t, 16)
	for i := range buf {
		buf[i] = byte(i)
	}
	s := spanOver(buf)

	require.Equal(t, 16, s.Len())
	assert.Equal(t, byte(5), s.At(5))

	sub := s.Slice(4, 4)
	assert.Equal(t, 4, sub.Len())
	assert.Equal(t, byte(4), sub.At(0))
}

func TestSpanOutOfRangePanics(t *testing.T) {
	buf := backingBuffer(t, 4)
	s := spanOver(buf)
	assert.Panics(t, func() { s.At(4) })
	assert.Panics(t, func() { s.Slice(0, 5) })
}

func TestSpanMutSetAt(t *testing.T) {
	buf := backingBuffer(t, 8)
	sm := spanMutOver(buf)
	sm.SetAt(2, 0xAB)
	assert.Equal(t, byte(0xAB), buf[2])
}

func TestUnalignedReadWrite(t *testing.T) {
	buf := backingBuffer(t, 16)
	sm := spanMutOver(buf)

	WriteUnaligned[uint32](sm, 1, 0x01020304)
	got := ReadUnaligned[uint32](sm.Span, 1)
	assert.Equal(t, uint32(0x01020304), got)
}

func TestVolatileReadWrite(t *testing.T) {
	buf := backingBuffer(t, 16)
	sm := spanMutOver(buf)

	WriteVolatile[uint64](sm, 0, 0x0102030405060708)
	got := ReadVolatile[uint64](sm.Span, 0)
	assert.Equal(t, uint64(0x0102030405060708), got)
}
