package llheap

import "sync/atomic"

// Stats mirrors AllocatorStats in the teacher's internal/allocator package
// but adds the counters SPEC_FULL.md's "Per-heap and global statistics
// counters" section calls for: a separately tracked zero-size call count
// (spec.md §9) and counts for the allocator-internal events (region
// extension, return-list drain, mmap) that a host's print_stats would want
// to report alongside the basic byte totals.
type Stats struct {
	AllocCount      uint64
	FreeCount       uint64
	ResizeCount     uint64
	ReallocCount    uint64
	ZeroSizeCount   uint64
	BytesRequested  uint64
	BytesInBuckets  uint64
	BytesFreed      uint64
	MmapCount       uint64
	MunmapCount     uint64
	RegionExtends   uint64
	ReturnDrains    uint64
	RemoteFrees     uint64
}

// statCounters is the atomic-field storage embedded in both *Heap
// (per-heap stats) and *HeapMaster (process-wide aggregate). Kept as a
// distinct type so Snapshot can be shared between the two call sites.
type statCounters struct {
	allocCount     uint64
	freeCount      uint64
	resizeCount    uint64
	reallocCount   uint64
	zeroSizeCount  uint64
	bytesRequested uint64
	bytesInBuckets uint64
	bytesFreed     uint64
	mmapCount      uint64
	munmapCount    uint64
	regionExtends  uint64
	returnDrains   uint64
	remoteFrees    uint64
}

func (c *statCounters) Snapshot() Stats {
	return Stats{
		AllocCount:     atomic.LoadUint64(&c.allocCount),
		FreeCount:      atomic.LoadUint64(&c.freeCount),
		ResizeCount:    atomic.LoadUint64(&c.resizeCount),
		ReallocCount:   atomic.LoadUint64(&c.reallocCount),
		ZeroSizeCount:  atomic.LoadUint64(&c.zeroSizeCount),
		BytesRequested: atomic.LoadUint64(&c.bytesRequested),
		BytesInBuckets: atomic.LoadUint64(&c.bytesInBuckets),
		BytesFreed:     atomic.LoadUint64(&c.bytesFreed),
		MmapCount:      atomic.LoadUint64(&c.mmapCount),
		MunmapCount:    atomic.LoadUint64(&c.munmapCount),
		RegionExtends:  atomic.LoadUint64(&c.regionExtends),
		ReturnDrains:   atomic.LoadUint64(&c.returnDrains),
		RemoteFrees:    atomic.LoadUint64(&c.remoteFrees),
	}
}

func (c *statCounters) recordAlloc(requested, bucketed uintptr, zeroSize bool) {
	atomic.AddUint64(&c.allocCount, 1)
	atomic.AddUint64(&c.bytesRequested, uint64(requested))
	atomic.AddUint64(&c.bytesInBuckets, uint64(bucketed))

	if zeroSize {
		atomic.AddUint64(&c.zeroSizeCount, 1)
	}
}

func (c *statCounters) recordFree(bucketed uintptr) {
	atomic.AddUint64(&c.freeCount, 1)
	atomic.AddUint64(&c.bytesFreed, uint64(bucketed))
}

func (c *statCounters) recordRemoteFree() { atomic.AddUint64(&c.remoteFrees, 1) }
func (c *statCounters) recordResize()     { atomic.AddUint64(&c.resizeCount, 1) }
func (c *statCounters) recordRealloc()    { atomic.AddUint64(&c.reallocCount, 1) }
func (c *statCounters) recordMmap()       { atomic.AddUint64(&c.mmapCount, 1) }
func (c *statCounters) recordMunmap()     { atomic.AddUint64(&c.munmapCount, 1) }
func (c *statCounters) recordExtend()     { atomic.AddUint64(&c.regionExtends, 1) }
func (c *statCounters) recordDrain()      { atomic.AddUint64(&c.returnDrains, 1) }

func (c *statCounters) reset() {
	atomic.StoreUint64(&c.allocCount, 0)
	atomic.StoreUint64(&c.freeCount, 0)
	atomic.StoreUint64(&c.resizeCount, 0)
	atomic.StoreUint64(&c.reallocCount, 0)
	atomic.StoreUint64(&c.zeroSizeCount, 0)
	atomic.StoreUint64(&c.bytesRequested, 0)
	atomic.StoreUint64(&c.bytesInBuckets, 0)
	atomic.StoreUint64(&c.bytesFreed, 0)
	atomic.StoreUint64(&c.mmapCount, 0)
	atomic.StoreUint64(&c.munmapCount, 0)
	atomic.StoreUint64(&c.regionExtends, 0)
	atomic.StoreUint64(&c.returnDrains, 0)
	atomic.StoreUint64(&c.remoteFrees, 0)
}
