package llheap

import stderrors "github.com/llheap-go/llheap/internal/errors"

// validateAlignment enforces spec.md §4.7's "alignment must be a power of
// two no smaller than WordAlign" precondition.
func validateAlignment(alignment uintptr) error {
	if alignment < WordAlign || !isPowerOfTwo(alignment) {
		return stderrors.InvalidAlignment(alignment, WordAlign)
	}

	return nil
}

// AlignedAllocate implements spec.md §4.7's aligned_alloc: a plain
// allocation large enough to carve an alignment-satisfying span out of,
// with a fake header installed immediately before the returned pointer
// recording the offset back to the real header (spec.md §3's "fake
// header" shape). The over-allocation is sized so the worst-case
// alignment padding always fits, grounded on the classic
// malloc-then-align-then-record-offset technique described in spec.md §3.
func (h *Heap) AlignedAllocate(alignment, n uintptr) (uintptr, error) {
	if err := validateAlignment(alignment); err != nil {
		return 0, err
	}

	if err := checkAllocSize(n); err != nil {
		return 0, err
	}

	rawSize := n + HeaderSize + alignment

	base, err := h.allocate(rawSize, false)
	if err != nil {
		return 0, err
	}

	real := base - HeaderSize
	p := alignUp(base+HeaderSize, alignment)
	fakeAddr := p - HeaderSize

	writeFakeHeader(fakeAddr, real, alignment)
	setRealHeaderSize(real, n)

	return p, nil
}

// AlignedAllocateArray is AlignedAllocate's dim*elemSize counterpart.
func (h *Heap) AlignedAllocateArray(alignment, dim, elemSize uintptr) (uintptr, error) {
	n, err := checkArraySize(dim, elemSize)
	if err != nil {
		return 0, err
	}

	return h.AlignedAllocate(alignment, n)
}

// AlignedAllocateZeroed is AlignedAllocate's calloc counterpart: it zeroes
// exactly the user-visible span, not the (larger) raw over-allocation.
func (h *Heap) AlignedAllocateZeroed(alignment, n uintptr) (uintptr, error) {
	p, err := h.AlignedAllocate(alignment, n)
	if err != nil {
		return 0, err
	}

	zeroFill(p, n)

	real, _, _ := headerFromUser(p)
	w0 := realHeaderWord0(real)
	setRealHeaderWord0(real, w0|stickyZero)

	return p, nil
}

// AlignedResize resizes an aligned allocation, preserving its original
// alignment unless a strictly stronger one is requested, in which case the
// block is moved (spec.md §4.7's "alignment is preserved across resize").
func (h *Heap) AlignedResize(addr, alignment, newSize uintptr) (uintptr, error) {
	if err := validateAlignment(alignment); err != nil {
		return 0, err
	}

	if err := checkAllocSize(newSize); err != nil {
		return 0, err
	}

	info := h.inspect(addr)

	if alignment > info.alignment {
		return h.moveToStrongerAlignment(info, addr, alignment, newSize, false)
	}

	if fitsInPlace(newSize, info.capacity, info.mapped) {
		h.resizeInPlace(info, newSize)
		return addr, nil
	}

	return h.moveBlock(info, addr, newSize, false)
}

// AlignedReallocate is AlignedResize's content-preserving counterpart: the
// same alignment and in-place-or-move decisions, but content and the
// zero-fill guarantee survive, as in Reallocate.
func (h *Heap) AlignedReallocate(addr, alignment, newSize uintptr) (uintptr, error) {
	if err := validateAlignment(alignment); err != nil {
		return 0, err
	}

	if err := checkAllocSize(newSize); err != nil {
		return 0, err
	}

	info := h.inspect(addr)

	if alignment > info.alignment {
		return h.moveToStrongerAlignment(info, addr, alignment, newSize, true)
	}

	if fitsInPlace(newSize, info.capacity, info.mapped) {
		h.reallocateInPlace(info, addr, newSize)
		return addr, nil
	}

	return h.moveBlock(info, addr, newSize, true)
}

// moveToStrongerAlignment relocates a block into a freshly aligned
// allocation when the caller requested an alignment stronger than the
// block currently carries (spec.md §4.6's "re-allocate aligned" branch).
// preserveContent distinguishes AlignedResize (destructive: no copy, zero
// bit cleared by virtue of never being set on the new block) from
// AlignedReallocate (content-preserving: copy plus zero-fill-tail and
// zero-bit propagation, matching moveBlock).
func (h *Heap) moveToStrongerAlignment(info blockInfo, addr, alignment, newSize uintptr, preserveContent bool) (uintptr, error) {
	newAddr, err := h.AlignedAllocate(alignment, newSize)
	if err != nil {
		return 0, err
	}

	if preserveContent {
		copyLen := info.requested
		if newSize < copyLen {
			copyLen = newSize
		}

		copyMemory(newAddr, addr, copyLen)

		if info.zeroed {
			markZeroFilled(newAddr)

			if newSize > copyLen {
				zeroFill(newAddr+copyLen, newSize-copyLen)
			}
		}
	}

	if err := h.Free(addr); err != nil {
		return 0, err
	}

	if preserveContent {
		h.stats.recordRealloc()
		h.master.stats.recordRealloc()
	} else {
		h.stats.recordResize()
		h.master.stats.recordResize()
	}

	return newAddr, nil
}
