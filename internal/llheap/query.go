package llheap

// QuerySize returns the size originally requested for the allocation at
// addr (spec.md §6's malloc_size).
func (h *Heap) QuerySize(addr uintptr) uintptr {
	real, _, _ := headerFromUser(addr)
	return realHeaderSize(real)
}

// QueryUsableSize returns the number of bytes addr could grow into via
// Resize without moving (spec.md §6's malloc_usable_size).
func (h *Heap) QueryUsableSize(addr uintptr) uintptr {
	return h.inspect(addr).capacity
}

// QueryAlignment returns the alignment addr was allocated with: WordAlign
// for a plain allocation, or whatever AlignedAllocate recorded.
func (h *Heap) QueryAlignment(addr uintptr) uintptr {
	_, alignment, _ := headerFromUser(addr)
	return alignment
}

// QueryZeroFilled reports whether addr's bytes are still guaranteed zero
// (true immediately after AllocateZeroed/AlignedAllocateZeroed, and after
// any Reallocate/AlignedReallocate that grew such a block, since the grown
// tail is zeroed too; false after a destructive Resize/AlignedResize, which
// never preserves the guarantee, unless that call moved the block into a
// fresh large mapping, which is always zero-filled).
func (h *Heap) QueryZeroFilled(addr uintptr) bool {
	real, _, _ := headerFromUser(addr)
	return isZeroFilled(realHeaderWord0(real))
}

// QueryRemote is SPEC_FULL.md's supplemented diagnostic: it reports
// whether a heap other than h owns the bucketed block at addr (false for a
// large mapped block). In ownership mode that is exactly when Free from h
// takes the cross-thread return-list path; in no-ownership mode Free
// absorbs such a block into h's own bucket instead, and QueryRemote still
// reports true. Intended for tests and instrumentation, not for the hot
// allocation path.
func (h *Heap) QueryRemote(addr uintptr) bool {
	real, _, _ := headerFromUser(addr)
	w0 := realHeaderWord0(real)

	if isMapped(w0) {
		return false
	}

	fl := homeToBucket(clearSticky(w0))

	return fl.owner != h
}
