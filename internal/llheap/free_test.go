package llheap

import (
	"sync"
	"testing"
)

func TestFreeNilIsNoop(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	if err := h.Free(0); err != nil {
		t.Fatalf("Free(0): %v", err)
	}
}

func TestCrossHeapFreeGoesToReturnList(t *testing.T) {
	m := newTestMaster(t)
	owner := Acquire(m)
	defer owner.Release()

	freer := Acquire(m)
	defer freer.Release()

	addr, err := owner.Allocate(64)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if !freer.QueryRemote(addr) {
		t.Fatal("QueryRemote should report true for a block owned by a different heap")
	}

	if err := freer.Free(addr); err != nil {
		t.Fatalf("Free: %v", err)
	}

	if owner.Stats().RemoteFrees == 0 {
		t.Fatal("owner's RemoteFrees counter was not incremented")
	}

	// The block should now be reachable from the owner's own return list:
	// allocating the same size again should drain it rather than extend.
	before := owner.Stats().RegionExtends

	if _, err := owner.Allocate(64); err != nil {
		t.Fatalf("Allocate after remote free: %v", err)
	}

	if owner.Stats().ReturnDrains == 0 {
		t.Fatal("expected the owner to drain its return list")
	}

	if owner.Stats().RegionExtends > before {
		t.Fatal("owner extended the region instead of reusing the returned block")
	}
}

func TestCrossHeapFreeConcurrentProducers(t *testing.T) {
	m := newTestMaster(t)
	owner := Acquire(m)
	defer owner.Release()

	const n = 2000

	addrs := make([]uintptr, n)

	for i := range addrs {
		addr, err := owner.Allocate(32)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}

		addrs[i] = addr
	}

	var wg sync.WaitGroup

	const producers = 8

	for p := 0; p < producers; p++ {
		wg.Add(1)

		go func(p int) {
			defer wg.Done()

			freer := Acquire(m)
			defer freer.Release()

			for i := p; i < n; i += producers {
				if err := freer.Free(addrs[i]); err != nil {
					t.Errorf("Free: %v", err)
				}
			}
		}(p)
	}

	wg.Wait()

	if owner.Stats().RemoteFrees == 0 {
		t.Fatal("expected remote frees to be recorded")
	}
}

func TestNoOwnershipModeAbsorbsForeignFree(t *testing.T) {
	m := New(WithOwnership(false), WithExtendAmount(64*1024))

	owner := Acquire(m)
	defer owner.Release()

	freer := Acquire(m)
	defer freer.Release()

	addr, err := owner.Allocate(64)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := freer.Free(addr); err != nil {
		t.Fatalf("Free: %v", err)
	}

	if freer.Stats().RemoteFrees != 0 {
		t.Fatal("no-ownership mode should never record a remote free")
	}

	before := freer.Stats().RegionExtends

	if _, err := freer.Allocate(64); err != nil {
		t.Fatalf("Allocate after absorbed free: %v", err)
	}

	if freer.Stats().RegionExtends > before {
		t.Fatal("freer should have reused the absorbed block from its own bucket")
	}
}
