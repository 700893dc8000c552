package llheap

// Allocate implements spec.md §4.4's do_malloc: the bucketed fast path for
// total sizes (n + HeaderSize) at or below the mmap crossover that fit a
// usable bucket, and a direct anonymous mapping otherwise. A zero-byte request is honored with a real, freeable block from
// the smallest bucket (spec.md §9's "a zero-size allocation returns a
// unique pointer"), distinguished only by the ZeroSizeCount statistic.
func (h *Heap) Allocate(n uintptr) (uintptr, error) {
	return h.allocate(n, false)
}

// AllocateZeroed implements spec.md §4.4's calloc-style entry point: the
// returned block's bytes are guaranteed zero, either because the mapping
// is fresh from the kernel (always zero-filled) or because the bucketed
// path zeroes it explicitly before returning.
func (h *Heap) AllocateZeroed(n uintptr) (uintptr, error) {
	return h.allocate(n, true)
}

// AllocateArray and AllocateZeroedArray are the *_array entry points of
// spec.md §6: dim*elemSize with overflow checking pulled out of the size
// computation itself: an overflowing product is reported as an
// IntegerOverflow error rather than wrapping.
func (h *Heap) AllocateArray(dim, elemSize uintptr) (uintptr, error) {
	n, err := checkArraySize(dim, elemSize)
	if err != nil {
		return 0, err
	}

	return h.allocate(n, false)
}

func (h *Heap) AllocateZeroedArray(dim, elemSize uintptr) (uintptr, error) {
	n, err := checkArraySize(dim, elemSize)
	if err != nil {
		return 0, err
	}

	return h.allocate(n, true)
}

func (h *Heap) allocate(n uintptr, zeroed bool) (uintptr, error) {
	if err := checkAllocSize(n); err != nil {
		return 0, err
	}

	total := n + HeaderSize

	crossover, maxUsableBucket := h.master.crossover()
	if total > crossover || maxUsableBucket < 0 {
		return h.allocateMapped(n, zeroed)
	}

	idx := bucketIndexForTotal(total)
	if idx > maxUsableBucket || bucketSizes[idx] < total {
		return h.allocateMapped(n, zeroed)
	}

	block := h.bucketBlock(idx)

	writeBucketedHeader(block, homeOf(h.bucket(idx)), n, zeroed)

	if zeroed {
		zeroFill(userAddr(block), n)
	}

	h.stats.recordAlloc(n, bucketSizes[idx], n == 0)
	h.master.stats.recordAlloc(n, bucketSizes[idx], n == 0)

	return userAddr(block), nil
}

// bucketBlock returns a free block already belonging to bucket idx,
// draining the return list or extending the bump reserve as needed
// (spec.md §4.4's "pop local; else drain return-list; else extend").
func (h *Heap) bucketBlock(idx int) uintptr {
	fl := h.bucket(idx)

	if block, ok := fl.popLocal(); ok {
		return block
	}

	if head, ok := fl.drainReturn(); ok {
		h.stats.recordDrain()
		h.master.stats.recordDrain()

		rest := clearSticky(loadWord(head))
		if rest != 0 {
			fl.local = rest
		}

		return head
	}

	block, err := h.extend(fl.size)
	if err != nil {
		fatalf(h.master.StatsFD(), "region extend for bucket size %d failed: %v", fl.size, err)
	}

	return block
}

func (h *Heap) allocateMapped(n uintptr, zeroed bool) (uintptr, error) {
	total := n + HeaderSize
	mappedTotal := alignUp(total, h.master.pageSize)

	base, err := mapAnonymous(mappedTotal)
	if err != nil {
		return 0, err
	}

	writeMappedHeader(base, mappedTotal, n, true) // mmap always returns zeroed pages

	h.stats.recordAlloc(n, mappedTotal, n == 0)
	h.master.stats.recordAlloc(n, mappedTotal, n == 0)
	h.stats.recordMmap()
	h.master.stats.recordMmap()

	_ = zeroed // mapped blocks are always zero-filled regardless of the caller's request

	return userAddr(base), nil
}
