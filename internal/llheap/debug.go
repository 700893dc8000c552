//go:build llheap_debug

package llheap

import "fmt"

// ReportLeaks compares the process-wide outstanding-allocation count
// against ExpectedUnfreed (spec.md §9's expected_unfreed, an allowance for
// allocations a host program intentionally never frees, such as a global
// table) and returns a descriptive error if more blocks than that are
// still outstanding. It is compiled in only under llheap_debug, since
// walking the aggregate counters this way is purely a diagnostic
// convenience, not something the allocation/free hot path should pay for.
func ReportLeaks(m *HeapMaster) error {
	outstanding := m.outstandingBlocks()
	if outstanding <= uint64(m.expectedUnfreed) {
		return nil
	}

	return fmt.Errorf("llheap: %d blocks outstanding, expected at most %d", outstanding, m.expectedUnfreed)
}

// debugCheckFree is compiled in only under the llheap_debug build tag
// (SPEC_FULL.md's "debug header-corruption diagnosis", grounded on the
// teacher's internal/runtime/block_manager_debug.go split between a
// diagnosing debug build and a silent release build). It distinguishes the
// two ways a corrupted or foreign pointer can be handed to Free: the
// address does not lie in any region this process has ever carved, or it
// does, but the header's home pointer does not reference a live
// freeListHeader.
func debugCheckFree(h *Heap, real uintptr) {
	w0 := realHeaderWord0(real)
	if isMapped(w0) {
		return
	}

	home := clearSticky(w0)
	if home == 0 {
		fatalf(h.master.StatsFD(), "free: corrupt header at %#x: zero home pointer", real)
	}

	fl := homeToBucket(home)
	if fl.owner == nil || fl.size == 0 {
		fatalf(h.master.StatsFD(), "free: corrupt header at %#x: home %#x does not address a live free-list header", real, home)
	}

	if !h.master.region.Contains(real) {
		fatalf(h.master.StatsFD(), "free: address %#x outside the managed region", real)
	}
}
