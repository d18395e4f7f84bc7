//go:build unix

package vm

import (
	"testing"
)

func TestMapAnonymousRoundTrip(t *testing.T) {
	addr, n, err := Map(MapOptions{Length: PageSize(), Write: true, Shared: true})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer func() {
		if err := Unmap(addr, n); err != nil {
			t.Fatalf("Unmap: %v", err)
		}
	}()

	b := byteSliceForTest(addr, n)
	b[0] = 0x7f
	if b[0] != 0x7f {
		t.Fatalf("expected write to stick")
	}
}

func TestAllocRingAliases(t *testing.T) {
	length := PageSize()
	base, err := AllocRing(length)
	if err != nil {
		t.Fatalf("AllocRing: %v", err)
	}
	defer func() {
		if err := FreeRing(base, length); err != nil {
			t.Fatalf("FreeRing: %v", err)
		}
	}()

	first := byteSliceForTest(base, length)
	second := byteSliceForTest(base+uintptr(length), length)

	first[0] = 0x42
	if second[0] != 0x42 {
		t.Fatalf("expected aliasing write to be visible in second half")
	}

	second[length-1] = 0x24
	if first[length-1] != 0x24 {
		t.Fatalf("expected aliasing write to be visible in first half")
	}
}

func TestPageSizeAndGranularity(t *testing.T) {
	if PageSize() <= 0 {
		t.Fatalf("expected positive page size")
	}
	if AllocationGranularity() < PageSize() {
		t.Fatalf("expected allocation granularity >= page size")
	}
}
