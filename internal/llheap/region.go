package llheap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// RegionProvider carves aligned bytes from a single shared, monotonically
// growing region. It is the low-level layer of spec.md §4.1: one
// operation, Carve, that atomically hands out n aligned bytes from the
// region's high end, extending the backing mapping if necessary.
//
// Grounded on cloudfly-readgo/runtime/malloc.go's sysAlloc/sysReserve
// (the Go runtime itself grows its heap arena with mmap, not brk/sbrk) and
// on internal's former region_alloc.go RegionHeader/Region split between
// metadata (kept as ordinary, GC-visible Go state here) and raw backing
// bytes (kept off-heap via mmap so addresses recorded inside block headers
// never move).
type RegionProvider interface {
	// Carve returns the base address of a fresh, size-byte span. size must
	// already be a multiple of WordAlign. Returns an error only on
	// out-of-memory; per spec.md §7 that error is meant to be fatal at the
	// call site, not recovered from.
	Carve(size uintptr) (uintptr, error)

	// Contains reports whether addr falls within a span this provider has
	// ever handed out, used only by the debug-mode header sanity check.
	Contains(addr uintptr) bool
}

// mmapRegion is the default RegionProvider: a chain of anonymous mappings,
// with bump allocation inside the most recent one. How large each
// mapping is left entirely to the caller of Carve (heap.go's
// manager_extend already decides that from HeapMaster's extend_amount
// knob); mmapRegion itself only rounds up to a whole page. The mapping is
// never returned to the OS (spec.md §5 "the program-break-backed region
// is never shrunk").
type mmapRegion struct {
	mu        spinlock
	base      uintptr
	highWater uintptr
	slabEnd   uintptr
	pageSize  uintptr
}

func newMmapRegion() *mmapRegion {
	return &mmapRegion{pageSize: uintptr(unix.Getpagesize())}
}

func (r *mmapRegion) Carve(size uintptr) (uintptr, error) {
	if size%WordAlign != 0 {
		size = alignUp(size, WordAlign)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := r.slabEnd - r.highWater; size > remaining {
		grow := alignUp(size, r.pageSize)

		base, err := mapAnonymous(grow)
		if err != nil {
			return 0, fmt.Errorf("llheap: region extend of %d bytes failed: %w", grow, err)
		}

		if r.base == 0 {
			r.base = base
		}

		r.highWater = base
		r.slabEnd = base + grow
	}

	block := r.highWater
	r.highWater += size

	return block, nil
}

// Contains reports whether addr lies within any slab this provider has
// ever handed a high-water mark for. It is conservative: because slabs are
// never released, "within [base, currentHighWater)" is sufficient for the
// debug-mode header sanity check in debug.go, even though it does not
// prove addr falls inside a specific slab rather than a gap between two.
func (r *mmapRegion) Contains(addr uintptr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.base != 0 && addr >= r.base && addr < r.highWater
}
