package llheap

// blockInfo captures what Resize/Reallocate need to know about an
// existing block regardless of whether it is bucketed or mapped:
// its capacity (bytes available to the user before another block would
// need to be found), its currently recorded requested size, its
// alignment (WordAlign unless a fake header says otherwise), and whether
// it was originally a zero-filled allocation.
type blockInfo struct {
	real      uintptr
	capacity  uintptr
	requested uintptr
	alignment uintptr
	hadFake   bool
	zeroed    bool
	mapped    bool
}

func (h *Heap) inspect(addr uintptr) blockInfo {
	real, alignment, hadFake := headerFromUser(addr)
	w0 := realHeaderWord0(real)
	requested := realHeaderSize(real)

	if isMapped(w0) {
		total := clearSticky(w0)
		return blockInfo{
			real:      real,
			capacity:  total - (addr - real),
			requested: requested,
			alignment: alignment,
			hadFake:   hadFake,
			zeroed:    isZeroFilled(w0),
			mapped:    true,
		}
	}

	fl := homeToBucket(clearSticky(w0))

	return blockInfo{
		real:      real,
		capacity:  bucketSizes[fl.index] - (addr - real),
		requested: requested,
		alignment: alignment,
		hadFake:   hadFake,
		zeroed:    isZeroFilled(w0),
		mapped:    false,
	}
}

// Resize implements spec.md §4.6's destructive resize: the block is reused
// in place when fitsInPlace accepts it (capacity holds newSize and is not
// more than reallocSlackDivisor times oversized), and moved otherwise, but
// prior content is never preserved across either path — a previously
// zero-filled block loses that guarantee (query.go's QueryZeroFilled
// reports false afterward, except when the move lands in a fresh large
// mapping, which is always zero-filled). Use Reallocate when the content
// and zero-fill guarantee must survive.
func (h *Heap) Resize(addr uintptr, newSize uintptr) (uintptr, error) {
	if addr == 0 {
		return h.allocate(newSize, false)
	}

	if err := checkAllocSize(newSize); err != nil {
		return 0, err
	}

	info := h.inspect(addr)

	if fitsInPlace(newSize, info.capacity, info.mapped) {
		h.resizeInPlace(info, newSize)
		return addr, nil
	}

	return h.moveBlock(info, addr, newSize, false)
}

// ResizeArray is Resize's dim*elemSize counterpart (spec.md §6).
func (h *Heap) ResizeArray(addr, dim, elemSize uintptr) (uintptr, error) {
	n, err := checkArraySize(dim, elemSize)
	if err != nil {
		return 0, err
	}

	return h.Resize(addr, n)
}

// reallocSlackDivisor is spec.md §4.6's "2x upper bound": the reuse case
// only applies while avail <= reallocSlackDivisor*newSize, so a shrink
// that would leave the current block less than half utilized moves into a
// smaller block instead of pinning it indefinitely. This bound applies to
// both the destructive Resize and the content-preserving Reallocate; only
// whether the in-place path preserves content differs between the two.
const reallocSlackDivisor = 2

// fitsInPlace reports whether a block of the given capacity is a reuse-case
// fit for newSize per spec.md §4.6: large enough for the request, and not
// more than reallocSlackDivisor times oversized. Large-mapped blocks are
// exempt from the oversize half: shrinking one does not free a bucket slot
// for reuse elsewhere, only trades one full page mapping for another, so
// the pinning concern the bound exists for does not apply to them.
func fitsInPlace(newSize, capacity uintptr, mapped bool) bool {
	if newSize > capacity {
		return false
	}

	return mapped || capacity <= newSize*reallocSlackDivisor
}

// Reallocate implements spec.md §4.6/§6's realloc-style entry point. It
// makes the same in-place-or-move decision as Resize (fitsInPlace), but
// preserves the first min(old size, newSize) bytes and the zero-fill
// guarantee on both paths. A newSize of 0 frees the block and returns 0.
func (h *Heap) Reallocate(addr uintptr, newSize uintptr) (uintptr, error) {
	if addr == 0 {
		return h.allocate(newSize, false)
	}

	if newSize == 0 {
		if err := h.Free(addr); err != nil {
			return 0, err
		}

		return 0, nil
	}

	if err := checkAllocSize(newSize); err != nil {
		return 0, err
	}

	info := h.inspect(addr)

	if fitsInPlace(newSize, info.capacity, info.mapped) {
		h.reallocateInPlace(info, addr, newSize)
		return addr, nil
	}

	return h.moveBlock(info, addr, newSize, true)
}

// ReallocateArray is Reallocate's dim*elemSize counterpart.
func (h *Heap) ReallocateArray(addr, dim, elemSize uintptr) (uintptr, error) {
	n, err := checkArraySize(dim, elemSize)
	if err != nil {
		return 0, err
	}

	return h.Reallocate(addr, n)
}

// resizeInPlace is the destructive half of spec.md §4.6: content is not
// preserved, so the zero-fill sticky bit is cleared unconditionally
// (bytes beyond the old requested size are whatever the block previously
// held, not guaranteed zero) before the recorded size is updated.
func (h *Heap) resizeInPlace(info blockInfo, newSize uintptr) {
	if info.zeroed {
		setRealHeaderWord0(info.real, realHeaderWord0(info.real)&^stickyZero)
	}

	setRealHeaderSize(info.real, newSize)

	h.stats.recordResize()
	h.master.stats.recordResize()
}

// reallocateInPlace is the content-preserving half of spec.md §4.6: a
// previously zero-filled block stays zero-filled, and any newly added
// tail bytes (when growing) are zeroed to extend that guarantee.
func (h *Heap) reallocateInPlace(info blockInfo, addr, newSize uintptr) {
	setRealHeaderSize(info.real, newSize)

	if info.zeroed && newSize > info.requested {
		zeroFill(addr+info.requested, newSize-info.requested)
	}

	h.stats.recordRealloc()
	h.master.stats.recordRealloc()
}

// moveBlock allocates a fresh block of newSize (honoring the original's
// alignment when it carried a fake header), and for a content-preserving
// caller (realloc) copies the overlapping prefix and zero-fills any newly
// added tail for a previously zero-filled block. A destructive caller
// (resize) skips the copy entirely, per spec.md §4.6.
func (h *Heap) moveBlock(info blockInfo, addr, newSize uintptr, preserveContent bool) (uintptr, error) {
	var (
		newAddr uintptr
		err     error
	)

	if info.hadFake {
		newAddr, err = h.AlignedAllocate(info.alignment, newSize)
	} else {
		newAddr, err = h.Allocate(newSize)
	}

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

// markZeroFilled sets the zero-fill sticky bit on a freshly allocated
// block's header, used when a move preserves the content-and-zero-fill
// guarantee of a realloc on a block that was originally allocated zeroed
// (the plain Allocate/AlignedAllocate call used to obtain the new block
// does not itself set the bit).
func markZeroFilled(userAddrOfNewBlock uintptr) {
	real, _, _ := headerFromUser(userAddrOfNewBlock)
	setRealHeaderWord0(real, realHeaderWord0(real)|stickyZero)
}
