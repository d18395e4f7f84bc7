package vm

import "errors"

// Sentinel errors classifying a facade failure independent of the OS that
// produced it. Callers join the wrapped OS error with one of these via
// errors.Join so errors.Is still matches the originating errno/Win32 code.
var (
	ErrInvalidInput     = errors.New("vm: invalid input")
	ErrPermissionDenied = errors.New("vm: permission denied")
	ErrOutOfRange       = errors.New("vm: out of range")
	ErrAddressSpace     = errors.New("vm: could not reserve address space")
)
