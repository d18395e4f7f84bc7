//go:build unix

package vm

import "unsafe"

func byteSliceForTest(addr uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}
