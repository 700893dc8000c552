package llheap

import (
	"sync/atomic"
	"unsafe"
)

// freeListHeader is the per-bucket-per-heap free-list head described in
// spec.md §3. owner/index let the free path (free.go) recover which heap
// and which bucket a block belongs to from nothing but the address of this
// struct (the block's "home"), without needing to locate it by pointer
// arithmetic inside the owning Heap's bucket slice.
//
// local is mutated only by the owning heap (never atomically). returnHead
// is the only field a non-owner goroutine ever touches, and is always
// accessed through sync/atomic, per spec.md §5's "the only shared-mutable
// ... per-bucket return lists" rule. The struct is oversized to a cache
// line to keep neighboring buckets' hot fields from false-sharing, per
// spec.md §3's "Must be cache-line aligned" requirement.
type freeListHeader struct {
	owner      *Heap
	size       uintptr
	index      int
	local      uintptr
	returnHead uintptr
	_          [24]byte
}

// pushLocal pushes a block already known to belong to this bucket onto the
// owner-local free stack. Only the owning heap ever calls this.
func (fl *freeListHeader) pushLocal(blockHeader uintptr) {
	storeWord(blockHeader, fl.local)
	fl.local = blockHeader
}

// popLocal pops the owner-local free stack, restoring the popped block's
// home pointer (free-list "next" and in-use "home" share the same word,
// per spec.md §3, so the home value must be re-written on every pop).
func (fl *freeListHeader) popLocal() (uintptr, bool) {
	if fl.local == 0 {
		return 0, false
	}

	block := fl.local
	fl.local = clearSticky(loadWord(block))
	setRealHeaderWord0(block, uintptr(unsafe.Pointer(fl)))

	return block, true
}

// pushReturn is the cross-thread remote-free path: a CAS loop pushing onto
// the bucket's return stack, per spec.md §4.5's "install the block at the
// head using a compare-and-swap loop with sequentially consistent
// ordering." Grounded on the CAS-retry-with-backoff shape in the
// retrieval pack's lock-free MPSC ring buffer.
func (fl *freeListHeader) pushReturn(blockHeader uintptr) {
	for {
		old := atomic.LoadUintptr(&fl.returnHead)
		storeWord(blockHeader, old)

		if atomic.CompareAndSwapUintptr(&fl.returnHead, old, blockHeader) {
			return
		}
	}
}

// drainReturn atomically detaches the entire return stack and hands its
// head to the caller (spec.md §4.4's "atomically drain the return-list").
func (fl *freeListHeader) drainReturn() (uintptr, bool) {
	head := atomic.SwapUintptr(&fl.returnHead, 0)
	return head, head != 0
}

// Heap is a per-handle (see tls.go) allocation context: bucketed free
// lists plus a private bump-allocation reserve carved from the shared
// region. It corresponds to spec.md §2's "per-thread heap manager" with
// the redesign note in SPEC_FULL.md (bound to an explicit handle rather
// than an OS thread).
type Heap struct {
	master           *HeapMaster
	buckets          []freeListHeader
	reserveBase      uintptr
	reserveRemaining uintptr
	nextFree         *Heap
	noOwnership      bool
	stats            statCounters
	unfreedBytes     int64
}

// Stats returns a point-in-time snapshot of this heap's counters.
func (h *Heap) Stats() Stats { return h.stats.Snapshot() }

// UnfreedBytes returns this heap's unfreed-byte counter. No allocation or
// free path updates the counter, so it reads zero; the debug leak reporter
// in debug.go (ReportLeaks) counts outstanding blocks from the master's
// AllocCount/FreeCount instead.
func (h *Heap) UnfreedBytes() int64 { return atomic.LoadInt64(&h.unfreedBytes) }

func (h *Heap) bucket(index int) *freeListHeader { return &h.buckets[index] }

// manager_extend (spec.md §4.3): satisfy a size-byte bump allocation from
// the reserve, extending it from the region provider when necessary. If a
// non-trivial residual remains when the reserve is replaced, it is pushed
// onto the largest bucket it fits, rather than wasted outright.
func (h *Heap) extend(size uintptr) (uintptr, error) {
	if h.reserveRemaining >= size {
		block := h.reserveBase
		h.reserveBase += size
		h.reserveRemaining -= size

		return block, nil
	}

	if h.reserveRemaining >= bucketSizes[0] {
		idx := largestBucketAtOrBelow(h.reserveRemaining)
		if idx >= 0 {
			h.bucket(idx).pushLocal(h.reserveBase)
			h.reserveBase = 0
			h.reserveRemaining = 0
		}
	}

	extendAmount := h.master.extendAmount() / regionDivisor
	carveSize := size
	if extendAmount > carveSize {
		carveSize = extendAmount
	}

	base, err := h.master.region.Carve(alignUp(carveSize, WordAlign))
	if err != nil {
		return 0, err
	}

	h.stats.recordExtend()
	h.master.stats.recordExtend()

	h.reserveBase = base
	h.reserveRemaining = carveSize

	block := h.reserveBase
	h.reserveBase += size
	h.reserveRemaining -= size

	return block, nil
}

// regionDivisor is the "small divisor (order ten to sixteen)" spec.md
// §4.3 calls for when sizing a heap's own carve request relative to the
// master's extend_amount, so a single heap extending does not immediately
// consume a full extend_amount-sized slab.
const regionDivisor = 12
