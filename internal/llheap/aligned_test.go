package llheap

import (
	"testing"
	"unsafe"
)

func TestAlignedAllocateSatisfiesAlignment(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	for _, alignment := range []uintptr{16, 64, 4096} {
		addr, err := h.AlignedAllocate(alignment, 100)
		if err != nil {
			t.Fatalf("AlignedAllocate(%d): %v", alignment, err)
		}

		if addr%alignment != 0 {
			t.Fatalf("AlignedAllocate(%d) returned %#x, not aligned", alignment, addr)
		}

		if h.QueryAlignment(addr) != alignment {
			t.Fatalf("QueryAlignment = %d, want %d", h.QueryAlignment(addr), alignment)
		}

		if err := h.Free(addr); err != nil {
			t.Fatalf("Free: %v", err)
		}
	}
}

func TestAlignedAllocateRejectsBadAlignment(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	if _, err := h.AlignedAllocate(17, 100); err == nil {
		t.Fatal("expected error for non-power-of-two alignment")
	}

	if _, err := h.AlignedAllocate(8, 100); err == nil {
		t.Fatal("expected error for alignment below WordAlign")
	}
}

// TestAlignedResizeChainPreservesAlignment exercises AlignedResize, the
// destructive counterpart of Resize (spec.md §4.6/§4.7): alignment must
// survive every step of the chain, but content/zero-fill is not
// guaranteed to (see TestAlignedReallocateChainPreservesZeroFill for the
// content-preserving counterpart).
func TestAlignedResizeChainPreservesAlignment(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	const alignment = 4096

	addr, err := h.AlignedAllocateZeroed(alignment, 100)
	if err != nil {
		t.Fatalf("AlignedAllocateZeroed: %v", err)
	}

	for _, newSize := range []uintptr{200, 50, 8000, 10} {
		addr, err = h.AlignedResize(addr, alignment, newSize)
		if err != nil {
			t.Fatalf("AlignedResize(%d): %v", newSize, err)
		}

		if addr%alignment != 0 {
			t.Fatalf("AlignedResize(%d) broke alignment: %#x", newSize, addr)
		}
	}
}

// TestAlignedReallocateChainPreservesZeroFill is AlignedResize's
// content-preserving counterpart, AlignedReallocate: both alignment and
// the zero-fill guarantee survive every step.
func TestAlignedReallocateChainPreservesZeroFill(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	const alignment = 4096

	addr, err := h.AlignedAllocateZeroed(alignment, 100)
	if err != nil {
		t.Fatalf("AlignedAllocateZeroed: %v", err)
	}

	for _, newSize := range []uintptr{200, 50, 8000, 10} {
		addr, err = h.AlignedReallocate(addr, alignment, newSize)
		if err != nil {
			t.Fatalf("AlignedReallocate(%d): %v", newSize, err)
		}

		if addr%alignment != 0 {
			t.Fatalf("AlignedReallocate(%d) broke alignment: %#x", newSize, addr)
		}

		if !h.QueryZeroFilled(addr) {
			t.Fatalf("AlignedReallocate(%d) lost the zero-filled invariant", newSize)
		}
	}
}

func TestAlignedAllocateArrayOverflow(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	if _, err := h.AlignedAllocateArray(64, ^uintptr(0), 2); err == nil {
		t.Fatal("expected overflow error from AlignedAllocateArray")
	}
}

func TestAlignedAllocateContentSurvivesAcrossAlignments(t *testing.T) {
	m := newTestMaster(t)
	h := Acquire(m)
	defer h.Release()

	addr, err := h.AlignedAllocate(64, 256)
	if err != nil {
		t.Fatalf("AlignedAllocate: %v", err)
	}

	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), 256)
	for i := range b {
		b[i] = byte(i)
	}

	moved, err := h.AlignedReallocate(addr, 4096, 256)
	if err != nil {
		t.Fatalf("AlignedReallocate to stronger alignment: %v", err)
	}

	if moved%4096 != 0 {
		t.Fatalf("expected %#x aligned to 4096", moved)
	}

	mb := unsafe.Slice((*byte)(unsafe.Pointer(moved)), 256)
	for i, v := range mb {
		if v != byte(i) {
			t.Fatalf("byte %d = %d after realignment move, want %d", i, v, byte(i))
		}
	}
}
