package llheap

import (
	"testing"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// TestScenarioLIFOFreeThenReallocate exercises the owner-local free stack's
// LIFO ordering: freeing a run of same-size blocks and reallocating the
// same count back should never need a fresh region extend, since each
// reallocation pops exactly the block the matching free pushed.
func TestScenarioLIFOFreeThenReallocate(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	const count = 64

	addrs := make([]uintptr, count)

	for i := range addrs {
		addr, err := h.Allocate(80)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}

		addrs[i] = addr
	}

	for i := count - 1; i >= 0; i-- {
		if err := h.Free(addrs[i]); err != nil {
			t.Fatalf("Free #%d: %v", i, err)
		}
	}

	extends := h.Stats().RegionExtends

	for i := 0; i < count; i++ {
		if _, err := h.Allocate(80); err != nil {
			t.Fatalf("Allocate (reuse) #%d: %v", i, err)
		}
	}

	if h.Stats().RegionExtends != extends {
		t.Fatal("reallocating exactly as many blocks as were freed triggered a region extend")
	}
}

// TestScenarioProducerConsumerCrossThreadFree has one goroutine allocate a
// stream of blocks and several others free them concurrently, exercising
// the CAS-based return-list push/drain path under contention.
func TestScenarioProducerConsumerCrossThreadFree(t *testing.T) {
	m := newTestMaster(t)
	owner := Acquire(m)
	defer owner.Release()

	const total = 5000

	work := make(chan uintptr, total)

	for i := 0; i < total; i++ {
		addr, err := owner.Allocate(40)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}

		work <- addr
	}

	close(work)

	var g errgroup.Group

	const consumers = 6

	for c := 0; c < consumers; c++ {
		g.Go(func() error {
			freer := Acquire(m)
			defer freer.Release()

			for addr := range work {
				if err := freer.Free(addr); err != nil {
					return err
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("consumer group: %v", err)
	}

	if owner.Stats().RemoteFrees != total {
		t.Fatalf("RemoteFrees = %d, want %d", owner.Stats().RemoteFrees, total)
	}
}

// TestScenarioAlignedReallocChain mirrors the aligned-chain coverage in
// aligned_test.go but drives it through Reallocate's shrink heuristic too,
// confirming 4096-byte alignment and the zero-fill bit both survive a mix
// of growing, shrinking, and slack-triggered moves.
func TestScenarioAlignedReallocChain(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	const alignment = 4096

	addr, err := h.AlignedAllocateZeroed(alignment, 4000)
	if err != nil {
		t.Fatalf("AlignedAllocateZeroed: %v", err)
	}

	for _, size := range []uintptr{4000, 100, 9000, 4096, 50} {
		addr, err = h.AlignedReallocate(addr, alignment, size)
		if err != nil {
			t.Fatalf("AlignedReallocate(%d): %v", size, err)
		}

		if addr%alignment != 0 {
			t.Fatalf("chain broke alignment at size %d: %#x", size, addr)
		}

		if !h.QueryZeroFilled(addr) {
			t.Fatalf("chain lost zero-fill bit at size %d", size)
		}
	}
}

// TestScenarioLargeBlockRoundTrip allocates, writes, reads back, and frees
// several mmap-crossover-sized blocks.
func TestScenarioLargeBlockRoundTrip(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	for _, size := range []uintptr{9 * 1024 * 1024, 16 * 1024 * 1024, 9*1024*1024 + 1} {
		addr, err := h.Allocate(size)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", size, err)
		}

		b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
		b[0], b[size-1] = 0x11, 0x22

		if b[0] != 0x11 || b[size-1] != 0x22 {
			t.Fatalf("large block at size %d did not retain written bytes", size)
		}

		if err := h.Free(addr); err != nil {
			t.Fatalf("Free(%d): %v", size, err)
		}
	}
}

// TestScenarioCallocRoundTripRepeated repeats an AllocateZeroed/Free cycle
// 100 times per size, confirming every cycle observes zeroed memory even
// though the underlying bytes are being reused from the free list (not
// freshly mapped) after the first iteration.
func TestScenarioCallocRoundTripRepeated(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	for _, size := range []uintptr{8, 100, 1000} {
		for i := 0; i < 100; i++ {
			addr, err := h.AllocateZeroed(size)
			if err != nil {
				t.Fatalf("AllocateZeroed(%d) iteration %d: %v", size, i, err)
			}

			b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
			for j, v := range b {
				if v != 0 {
					t.Fatalf("size %d iteration %d byte %d = %#x, want 0", size, i, j, v)
				}

				b[j] = 0xFF
			}

			if err := h.Free(addr); err != nil {
				t.Fatalf("Free(%d) iteration %d: %v", size, i, err)
			}
		}
	}
}

// TestScenarioThreadReuseAdoptsTerminatedHeap simulates a worker-pool
// pattern on one goroutine: a handle is acquired, used, and released
// ("terminates"); a later Acquire reuses the same underlying Heap and
// observes the free blocks the first user left behind.
func TestScenarioThreadReuseAdoptsTerminatedHeap(t *testing.T) {
	m := newTestMaster(t)

	var firstHandle *Heap

	func() {
		h := Acquire(m)
		defer h.Release()

		firstHandle = h

		for i := 0; i < 32; i++ {
			addr, err := h.Allocate(96)
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}

			if err := h.Free(addr); err != nil {
				t.Fatalf("Free: %v", err)
			}
		}
	}()

	h2 := Acquire(m)
	defer h2.Release()

	if h2 != firstHandle {
		t.Fatal("expected the released handle to be reused")
	}

	extends := h2.Stats().RegionExtends

	for i := 0; i < 32; i++ {
		if _, err := h2.Allocate(96); err != nil {
			t.Fatalf("Allocate after reuse #%d: %v", i, err)
		}
	}

	if h2.Stats().RegionExtends != extends {
		t.Fatal("adopted heap should have reused the terminated handle's free blocks")
	}
}
