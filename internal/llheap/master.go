package llheap

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"
)

// HeapMaster is the process-wide singleton from spec.md §2: it owns the
// shared region provider, the two runtime-tunable knobs, the pool of idle
// Heap handles, and the process-wide statistics aggregate. Grounded on the
// teacher's internal/allocator.Allocator, which plays the same "one
// constructed-once object backing many per-caller views" role, generalized
// here from a single pool allocator to the region + heap-pool + bucket
// table triple spec.md §2 describes.
type HeapMaster struct {
	region RegionProvider

	mu                spinlock
	mmapCrossover     uintptr
	maxUsableBucket   int
	extendAmountBytes uintptr

	pageSize uintptr

	freeHeaps *Heap // LIFO stack of released Heap handles awaiting reuse

	ownership       bool
	statsFD         int32
	expectedUnfreed uintptr

	stats statCounters

	group singleflight.Group
	once  sync.Once
}

// New constructs a HeapMaster, applying any Option overrides to the
// default Config (spec.md §6's weak override points). Unlike the
// original's lazy, implicit first-call initialization (the "heap master
// init" triggered by the first allocation on any thread), Go has no
// equivalent of an implicit process-wide constructor, so New is the
// explicit entry point; singleflight.Group still guards the one piece of
// genuinely lazy, idempotent initialization left (see bootstrap below),
// matching spec.md's "guaranteed to run exactly once, even if triggered by
// concurrent callers" requirement.
func New(opts ...Option) *HeapMaster {
	return newWithRegion(nil, opts...)
}

// NewWithRegion is the test-facing constructor that installs a caller-
// supplied RegionProvider (a hand-rolled fake, or a gomock mock) instead of
// the default mmap-backed one, so higher-level behavior can be verified
// without depending on the real mmap syscall succeeding or being
// observable from a test.
func NewWithRegion(region RegionProvider, opts ...Option) *HeapMaster {
	return newWithRegion(region, opts...)
}

func newWithRegion(region RegionProvider, opts ...Option) *HeapMaster {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if region == nil {
		region = newMmapRegion()
	}

	m := &HeapMaster{
		region:            region,
		mmapCrossover:     cfg.MmapCrossover,
		maxUsableBucket:   largestBucketAtOrBelow(cfg.MmapCrossover),
		extendAmountBytes: alignUp(cfg.ExtendAmount, WordAlign),
		pageSize:          uintptr(unix.Getpagesize()),
		ownership:         cfg.Ownership,
		statsFD:           int32(cfg.StatsFD),
		expectedUnfreed:   cfg.ExpectedUnfreed,
	}

	m.bootstrap()

	return m
}

// bootstrap runs the one-time, concurrency-safe setup spec.md §4.2's
// heap_master_init performs: today that is limited to priming the bucket
// table (already done in buckets.go's init()), but the singleflight guard
// is kept as the extension point a future stats backend or NUMA-aware
// region strategy would hook into without changing every caller's boot
// sequence.
func (m *HeapMaster) bootstrap() {
	m.once.Do(func() {
		_, _, _ = m.group.Do("bootstrap", func() (interface{}, error) {
			return nil, nil
		})
	})
}

func (m *HeapMaster) extendAmount() uintptr {
	return atomic.LoadUintptr(&m.extendAmountBytes)
}

// StatsFD returns the file descriptor diagnostics and statsio currently
// write to.
func (m *HeapMaster) StatsFD() int { return int(atomic.LoadInt32(&m.statsFD)) }

// SetStatsFD implements spec.md §6's set_stats_fd, letting a host program
// redirect fatal diagnostics and statistics dumps after construction.
func (m *HeapMaster) SetStatsFD(fd int) { atomic.StoreInt32(&m.statsFD, int32(fd)) }

// Stats returns a snapshot of the process-wide aggregate counters.
func (m *HeapMaster) Stats() Stats { return m.stats.Snapshot() }

// ResetStats implements spec.md §6's clear_stats, zeroing the process-wide
// aggregate counters. Per-heap counters (Heap.Stats) are unaffected, since
// a heap's own counters reflect work real code asked it to do and are not
// meant to be reset out from under an active caller.
func (m *HeapMaster) ResetStats() { m.stats.reset() }

// outstandingBlocks returns the number of allocations the process-wide
// aggregate has recorded as requested but not yet freed, used by the
// debug-mode leak reporter to compare against ExpectedUnfreed.
func (m *HeapMaster) outstandingBlocks() uint64 {
	s := m.stats.Snapshot()
	if s.AllocCount < s.FreeCount {
		return 0
	}

	return s.AllocCount - s.FreeCount
}

func (m *HeapMaster) crossover() (uintptr, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mmapCrossover, m.maxUsableBucket
}

// getHeap implements spec.md §4.2's get_heap: reuse a released handle from
// the free stack if one is available, otherwise build a fresh one with a
// zeroed bucket table sized to match bucketSizes.
func (m *HeapMaster) getHeap() *Heap {
	m.mu.Lock()
	h := m.freeHeaps
	if h != nil {
		m.freeHeaps = h.nextFree
		h.nextFree = nil
	}
	m.mu.Unlock()

	if h != nil {
		return h
	}

	h = &Heap{
		master:      m,
		buckets:     make([]freeListHeader, len(bucketSizes)),
		noOwnership: !m.ownership,
	}

	for i := range h.buckets {
		h.buckets[i].owner = h
		h.buckets[i].size = bucketSizes[i]
		h.buckets[i].index = i
	}

	return h
}

// releaseHeap returns a handle to the free stack for reuse by a future
// Acquire/Current call, per spec.md §4.2's "thread reuse adopts a
// terminated heap manager" scenario. The handle's bucketed free lists and
// bump reserve are left exactly as they were: a future owner simply
// inherits whatever live blocks, if any, remain recorded against it.
func (m *HeapMaster) releaseHeap(h *Heap) {
	m.mu.Lock()
	h.nextFree = m.freeHeaps
	m.freeHeaps = h
	m.mu.Unlock()
}
