package vmap

import (
	"os"

	"github.com/kalamay/vmap/internal/vm"
)

// Options collects the parameters of a mapping request: offset, length,
// protection, visibility, and the resize/populate/lock/truncate flags.
// Values are validated and the request is dispatched to the facade only
// when a terminal method — Open, OpenMut, Map, MapMut, or Alloc — is
// called.
type Options struct {
	offset    int64
	length    int
	hasLength bool
	write     bool
	exec      bool
	cow       bool
	shared    bool
	resize    bool
	populate  bool
	lockPages bool
	truncate  bool
}

// NewOptions returns an Options builder defaulted to a shared, read-only
// mapping covering the whole file from offset 0.
func NewOptions() *Options {
	return &Options{shared: true}
}

// Offset sets the byte offset into the file the mapping starts at. It need
// not be a multiple of the allocation granularity: the OS mapping starts at
// the aligned boundary below it, and the returned view starts at offset.
func (o *Options) Offset(n int64) *Options { o.offset = n; return o }

// Len sets the number of bytes to map. If not called, the mapping covers
// the remainder of the file from Offset.
func (o *Options) Len(n int) *Options { o.length = n; o.hasLength = true; return o }

// Write requests write access.
func (o *Options) Write() *Options { o.write = true; return o }

// Exec requests execute access.
func (o *Options) Exec() *Options { o.exec = true; return o }

// Copy requests a private copy-on-write mapping: writes are visible only
// to this mapping and never reach the backing file. Copy implies Private.
func (o *Options) Copy() *Options { o.cow = true; o.shared = false; o.write = true; return o }

// Share requests that writes propagate to the backing file and to other
// mappers of the same range. This is the default.
func (o *Options) Share() *Options { o.shared = true; return o }

// Resize requests that the backing file be extended to cover the mapped
// range if it is currently shorter. Without Resize, mapping beyond the end
// of the file fails with KindOutOfRange.
func (o *Options) Resize() *Options { o.resize = true; return o }

// Populate requests the OS prefault every page of the mapping immediately
// instead of faulting them in lazily on first access.
func (o *Options) Populate() *Options { o.populate = true; return o }

// Lock requests the mapped pages be pinned in RAM immediately after
// mapping succeeds.
func (o *Options) Lock() *Options { o.lockPages = true; return o }

// Truncate requests the backing file be truncated to Offset+Len before
// mapping.
func (o *Options) Truncate() *Options { o.truncate = true; return o }

func (o *Options) protection() Protection {
	switch {
	case o.cow:
		return ReadCopy
	case o.write && o.exec:
		return ExecReadWrite
	case o.write:
		return ReadWrite
	case o.exec:
		return ExecRead
	default:
		return Read
	}
}

func (o *Options) resolveLength(fileSize int64) (int, error) {
	if o.hasLength {
		return o.length, nil
	}
	remaining := fileSize - o.offset
	if remaining < 0 {
		return 0, &Error{Op: OpOptions, Kind: KindOutOfRange, Err: vm.ErrOutOfRange}
	}
	return int(remaining), nil
}

// preparedRange is what survives validating and, if requested, resizing
// the backing file: the allocation-granularity-aligned offset and length
// the OS mmap call must use, plus how far the caller's logical offset sits
// past that aligned boundary. mmap itself requires an aligned offset; the
// Options API does not, so a request for offset 10 on a file is satisfied
// by mapping from offset 0 and handing back a view that starts 10 bytes
// into that mapping.
type preparedRange struct {
	alignedOffset int64
	delta         int
	length        int
}

func (o *Options) prepareFile(f *os.File) (preparedRange, error) {
	if o.offset < 0 {
		return preparedRange{}, &Error{Op: OpOptions, Kind: KindInvalidInput, Err: vm.ErrInvalidInput}
	}

	fi, err := f.Stat()
	if err != nil {
		return preparedRange{}, &Error{Op: OpOptions, Kind: KindOS, Err: err}
	}

	length, err := o.resolveLength(fi.Size())
	if err != nil {
		return preparedRange{}, err
	}
	if length <= 0 {
		return preparedRange{}, &Error{Op: OpOptions, Kind: KindInvalidInput, Err: vm.ErrInvalidInput}
	}

	end := o.offset + int64(length)
	if o.truncate {
		if err := f.Truncate(end); err != nil {
			return preparedRange{}, &Error{Op: OpOptions, Kind: KindOS, Err: err}
		}
	} else if end > fi.Size() {
		if !o.resize {
			return preparedRange{}, &Error{Op: OpOptions, Kind: KindOutOfRange, Err: vm.ErrOutOfRange}
		}
		if err := f.Truncate(end); err != nil {
			return preparedRange{}, &Error{Op: OpOptions, Kind: KindOS, Err: err}
		}
	}

	granularity := int64(GetPageInfo().AllocationGranularity())
	aligned := (o.offset / granularity) * granularity
	delta := int(o.offset - aligned)
	return preparedRange{alignedOffset: aligned, delta: delta, length: length}, nil
}

func (o *Options) mapOptions(fd uintptr, hasFD bool, length int) vm.MapOptions {
	return vm.MapOptions{
		FD:       fd,
		HasFD:    hasFD,
		Offset:   o.offset,
		Length:   length,
		Write:    o.write,
		Exec:     o.exec,
		COW:      o.cow,
		Shared:   o.shared,
		Populate: o.populate,
	}
}

func (o *Options) doMap(op Operation, opts vm.MapOptions) (uintptr, int, error) {
	addr, n, err := vm.Map(opts)
	if err != nil {
		return 0, 0, newError(op, err)
	}
	return addr, n, nil
}

func (o *Options) afterMap(m *Map) error {
	if o.lockPages {
		if err := m.Lock(); err != nil {
			m.Close()
			return err
		}
	}
	return nil
}

// Open opens path read-only and maps it according to the options. The
// returned *os.File is owned by the caller; the mapping never retains it
// beyond this call.
func (o *Options) Open(path string) (Map, *os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return Map{}, nil, &Error{Op: OpMapFile, Kind: KindOS, Err: err}
	}
	m, err := o.Map(f)
	if err != nil {
		f.Close()
		return Map{}, nil, err
	}
	return m, f, nil
}

// OpenMut is Open, but opens the file read-write and maps it with write
// access.
func (o *Options) OpenMut(path string) (MapMut, *os.File, error) {
	flag := os.O_RDWR
	if o.truncate || o.resize {
		flag |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return MapMut{}, nil, &Error{Op: OpMapFile, Kind: KindOS, Err: err}
	}
	m, err := o.MapMut(f)
	if err != nil {
		f.Close()
		return MapMut{}, nil, err
	}
	return m, f, nil
}

// OpenMax opens path read-only and maps up to Len bytes, silently
// shortening the request to whatever remains in the file rather than
// failing. The boolean result reports whether the full requested length
// was honored.
func (o *Options) OpenMax(path string) (Map, bool, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return Map{}, false, &Error{Op: OpMapFile, Kind: KindOS, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Map{}, false, &Error{Op: OpMapFile, Kind: KindOS, Err: err}
	}
	remaining := fi.Size() - o.offset
	full := true
	sub := *o
	if o.hasLength && int64(o.length) > remaining {
		sub.length = int(remaining)
		full = false
	}
	m, err := sub.Map(f)
	if err != nil {
		return Map{}, false, err
	}
	return m, full, nil
}

// Map maps file according to the options. file is borrowed for the
// duration of this call only.
func (o *Options) Map(file *os.File) (Map, error) {
	pr, err := o.prepareFile(file)
	if err != nil {
		return Map{}, err
	}
	sub := *o
	sub.offset = pr.alignedOffset
	addr, n, err := sub.doMap(OpMapFile, sub.mapOptions(file.Fd(), true, pr.delta+pr.length))
	if err != nil {
		return Map{}, err
	}
	m := newMap(addr, n, pr.delta, pr.length, o.protection())
	if err := o.afterMap(&m); err != nil {
		return Map{}, err
	}
	return m, nil
}

// MapMut is Map, but requests write access regardless of whether Write was
// called explicitly.
func (o *Options) MapMut(file *os.File) (MapMut, error) {
	sub := *o
	sub.write = true
	m, err := sub.Map(file)
	if err != nil {
		return MapMut{}, err
	}
	return MapMut{Map: m}, nil
}

// Alloc maps an anonymous region backed by no file, always writable. The
// requested length is rounded up to a whole page, the same way the OS
// itself rounds an anonymous mapping request.
func (o *Options) Alloc() (MapMut, error) {
	if o.length <= 0 {
		return MapMut{}, &Error{Op: OpOptions, Kind: KindInvalidInput, Err: vm.ErrInvalidInput}
	}
	length := GetPageInfo().CeilPage(o.length)
	sub := *o
	sub.write = true
	sub.offset = 0
	addr, n, err := sub.doMap(OpMapAnonymous, sub.mapOptions(0, false, length))
	if err != nil {
		return MapMut{}, err
	}
	m := newMap(addr, n, 0, length, sub.protection())
	if err := sub.afterMap(&m); err != nil {
		return MapMut{}, err
	}
	return MapMut{Map: m}, nil
}
