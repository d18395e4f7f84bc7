package vmap

import (
	"sync/atomic"
	"unsafe"
)

// volatileLoad and volatileStore back ReadVolatile/WriteVolatile. Go has no
// volatile keyword; for the widths sync/atomic actually supports, routing
// the access through it prevents the compiler from fusing or reordering
// the access with a neighbor. Types of any other size fall back to a plain
// load/store.
func volatileLoad[T any](p *T) T {
	switch unsafe.Sizeof(*p) {
	case 4:
		v := atomic.LoadUint32((*uint32)(unsafe.Pointer(p)))
		return *(*T)(unsafe.Pointer(&v))
	case 8:
		v := atomic.LoadUint64((*uint64)(unsafe.Pointer(p)))
		return *(*T)(unsafe.Pointer(&v))
	default:
		return *p
	}
}

func volatileStore[T any](p *T, v T) {
	switch unsafe.Sizeof(v) {
	case 4:
		atomic.StoreUint32((*uint32)(unsafe.Pointer(p)), *(*uint32)(unsafe.Pointer(&v)))
	case 8:
		atomic.StoreUint64((*uint64)(unsafe.Pointer(p)), *(*uint64)(unsafe.Pointer(&v)))
	default:
		*p = v
	}
}
