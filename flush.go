package vmap

import "github.com/kalamay/vmap/internal/vm"

// Flush selects how a MapMut writes dirty pages back to the backing file.
type Flush int

const (
	// FlushSync blocks until the write-back is durable (POSIX MS_SYNC;
	// Windows FlushViewOfFile followed by FlushFileBuffers).
	FlushSync Flush = iota
	// FlushAsync queues the write-back without waiting for it (POSIX
	// MS_ASYNC; Windows FlushViewOfFile without a handle flush).
	FlushAsync
)

func (f Flush) internal() vm.FlushMode {
	if f == FlushAsync {
		return vm.FlushAsync
	}
	return vm.FlushSync
}
