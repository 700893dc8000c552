package llheap

// Free implements spec.md §4.5's do_free. free(0) is a no-op, matching the
// C convention spec.md §6 carries over. A large mapped block is returned
// to the OS immediately; a bucketed block goes back to its owning heap's
// local free stack when this heap is the owner, to the owner's return list
// (ownership mode) or this heap's own same-size bucket (no-ownership mode)
// otherwise, per spec.md §4.5 / §9.
func (h *Heap) Free(addr uintptr) error {
	if addr == 0 {
		return nil
	}

	real, _, _ := headerFromUser(addr)

	debugCheckFree(h, real)

	w0 := realHeaderWord0(real)

	if isMapped(w0) {
		total := clearSticky(w0)

		if err := unmapAnonymous(real, total); err != nil {
			return err
		}

		h.stats.recordFree(total)
		h.master.stats.recordFree(total)
		h.stats.recordMunmap()
		h.master.stats.recordMunmap()

		return nil
	}

	home := clearSticky(w0)
	fl := homeToBucket(home)

	switch {
	case fl.owner == h:
		fl.pushLocal(real)
	case h.noOwnership:
		h.bucket(fl.index).pushLocal(real)
	default:
		fl.pushReturn(real)
		h.stats.recordRemoteFree()
		fl.owner.stats.recordRemoteFree()
	}

	h.stats.recordFree(fl.size)
	h.master.stats.recordFree(fl.size)

	return nil
}
