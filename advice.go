package vmap

import "github.com/kalamay/vmap/internal/vm"

// Advice hints the host kernel about the access pattern a mapping expects.
// An advice the host does not implement is a silent no-op so portable
// callers can program against the full enum without special-casing
// platforms.
type Advice int

const (
	AdviceNormal Advice = iota
	AdviceRandom
	AdviceSequential
	AdviceWillNeed
	AdviceDontNeed
)

func (a Advice) internal() vm.Advice {
	switch a {
	case AdviceRandom:
		return vm.AdviceRandom
	case AdviceSequential:
		return vm.AdviceSequential
	case AdviceWillNeed:
		return vm.AdviceWillNeed
	case AdviceDontNeed:
		return vm.AdviceDontNeed
	default:
		return vm.AdviceNormal
	}
}
