package llheap

import (
	"testing"
	"unsafe"
)

func newTestMaster(t *testing.T) *HeapMaster {
	t.Helper()
	return New(WithExtendAmount(64 * 1024))
}

func TestAllocateBasic(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	addr, err := h.Allocate(128)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if addr == 0 {
		t.Fatal("Allocate returned nil address")
	}

	if h.QuerySize(addr) != 128 {
		t.Fatalf("QuerySize = %d, want 128", h.QuerySize(addr))
	}

	if h.QueryUsableSize(addr) < 128 {
		t.Fatalf("QueryUsableSize = %d, want >= 128", h.QueryUsableSize(addr))
	}

	if err := h.Free(addr); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestAllocateZeroSizeReturnsUsablePointer(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	addr, err := h.Allocate(0)
	if err != nil {
		t.Fatalf("Allocate(0): %v", err)
	}

	if addr == 0 {
		t.Fatal("Allocate(0) returned nil address")
	}

	if err := h.Free(addr); err != nil {
		t.Fatalf("Free: %v", err)
	}

	if h.Stats().ZeroSizeCount == 0 {
		t.Fatal("ZeroSizeCount not incremented")
	}
}

func TestAllocateZeroedIsZero(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	const n = 256

	addr, err := h.AllocateZeroed(n)
	if err != nil {
		t.Fatalf("AllocateZeroed: %v", err)
	}

	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
	for i := range b {
		b[i] = 0xAA
	}

	if err := h.Free(addr); err != nil {
		t.Fatalf("Free: %v", err)
	}

	addr2, err := h.AllocateZeroed(n)
	if err != nil {
		t.Fatalf("AllocateZeroed (2nd): %v", err)
	}

	b2 := unsafe.Slice((*byte)(unsafe.Pointer(addr2)), n)
	for i, v := range b2 {
		if v != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, v)
		}
	}

	if !h.QueryZeroFilled(addr2) {
		t.Fatal("QueryZeroFilled = false for freshly zeroed allocation")
	}
}

func TestAllocateArrayOverflow(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	_, err := h.AllocateArray(^uintptr(0), 2)
	if err == nil {
		t.Fatal("expected overflow error from AllocateArray")
	}
}

func TestAllocateLargeBlockUsesMmap(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	const big = 32 * 1024 * 1024

	addr, err := h.Allocate(big)
	if err != nil {
		t.Fatalf("Allocate(large): %v", err)
	}

	if h.Stats().MmapCount == 0 {
		t.Fatal("expected a large allocation to record an mmap")
	}

	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), big)
	b[0] = 1
	b[big-1] = 2

	if err := h.Free(addr); err != nil {
		t.Fatalf("Free(large): %v", err)
	}

	if h.Stats().MunmapCount == 0 {
		t.Fatal("expected freeing a large allocation to record a munmap")
	}
}

func TestAllocateManySmallBlocksReuseBucket(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	var addrs []uintptr

	for i := 0; i < 1000; i++ {
		addr, err := h.Allocate(48)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}

		addrs = append(addrs, addr)
	}

	for _, a := range addrs {
		if err := h.Free(a); err != nil {
			t.Fatalf("Free: %v", err)
		}
	}

	extendsAfterFirstPass := h.Stats().RegionExtends

	for i := 0; i < 1000; i++ {
		if _, err := h.Allocate(48); err != nil {
			t.Fatalf("Allocate (reuse) #%d: %v", i, err)
		}
	}

	if h.Stats().RegionExtends > extendsAfterFirstPass {
		t.Fatal("second pass of equal-sized allocations triggered a fresh region extend instead of reusing the freed blocks")
	}
}
