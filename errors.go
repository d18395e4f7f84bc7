package vmap

import (
	"errors"
	"fmt"

	"github.com/kalamay/vmap/internal/vm"
)

// Kind classifies the cause of an Error independent of which Operation
// produced it.
type Kind int

const (
	// KindOther is the zero Kind. classify never produces it: OS failures
	// that do not fit a more specific Kind are reported as KindOS.
	KindOther Kind = iota
	// KindInvalidInput reports a misaligned offset, zero length, or other
	// caller-supplied value the facade refused before touching the OS.
	KindInvalidInput
	// KindPermissionDenied reports a write on a read-only file, a lock
	// request without privilege, or a protection upgrade that was refused.
	KindPermissionDenied
	// KindOutOfRange reports a map beyond the end of a file with resize
	// not requested.
	KindOutOfRange
	// KindAddressSpace reports a failure to reserve two adjacent virtual
	// address ranges for a Ring after the bounded number of retries.
	KindAddressSpace
	// KindOS reports a syscall failure carrying its raw OS error code.
	KindOS
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindPermissionDenied:
		return "permission denied"
	case KindOutOfRange:
		return "out of range"
	case KindAddressSpace:
		return "address space"
	case KindOS:
		return "os"
	default:
		return "other"
	}
}

// Operation identifies which facade call produced an Error.
type Operation int

const (
	OpNone Operation = iota
	OpMapFile
	OpMapAnonymous
	OpUnmap
	OpProtect
	OpAdvise
	OpLock
	OpUnlock
	OpFlush
	OpRingAllocate
	OpRingDeallocate
	OpOptions
)

func (op Operation) String() string {
	switch op {
	case OpMapFile:
		return "map file"
	case OpMapAnonymous:
		return "map anonymous"
	case OpUnmap:
		return "unmap"
	case OpProtect:
		return "protect"
	case OpAdvise:
		return "advise"
	case OpLock:
		return "lock"
	case OpUnlock:
		return "unlock"
	case OpFlush:
		return "flush"
	case OpRingAllocate:
		return "ring allocate"
	case OpRingDeallocate:
		return "ring deallocate"
	case OpOptions:
		return "options"
	default:
		return "none"
	}
}

// Error is returned by every operation in this package that can fail
// because of the host OS or invalid caller input. It tags the failing
// Operation and classifies the cause as a Kind, while still unwrapping to
// the underlying OS error for errors.Is/errors.As interop.
type Error struct {
	Op   Operation
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("vmap: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("vmap: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op Operation, err error) *Error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return ve
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, vm.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, vm.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, vm.ErrOutOfRange):
		return KindOutOfRange
	case errors.Is(err, vm.ErrAddressSpace):
		return KindAddressSpace
	default:
		return KindOS
	}
}

// ErrPermissionDenied is the sentinel a caller can match with errors.Is
// against any Error whose Kind is KindPermissionDenied, without needing to
// unwrap to an *Error first.
var ErrPermissionDenied = errors.New("vmap: permission denied")

func (e *Error) Is(target error) bool {
	if target == ErrPermissionDenied {
		return e.Kind == KindPermissionDenied
	}
	return false
}
