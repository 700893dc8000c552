package llheap

import "unsafe"

// Each sbrk/mmap-backed allocation is prefixed by a header of exactly
// HeaderSize (== WordAlign) bytes: two uintptr-sized words. The header is a
// tagged union of two shapes discriminated by the low bits of the first
// word (spec.md §3):
//
//	real header: word0 = (home | munmapSize | nextFreeLink) | sticky bits
//	             word1 = requested user size
//	fake header: word0 = alignment | stickyFake   (alignment is a power of
//	             two >= WordAlign, so its low bits are free for the tag)
//	             word1 = byte offset back to the real header
//
// Bit 0 of the word immediately preceding a user address (stickyFake) says
// which shape that word has. Bits 1 and 2 are only meaningful on a real
// header's word0 and are untouched by fake headers.
const (
	stickyFake    uintptr = 1 << 0
	stickyZero    uintptr = 1 << 1
	stickyMapped  uintptr = 1 << 2
	stickyMask    uintptr = stickyFake | stickyZero | stickyMapped
	stickyInverse         = ^stickyMask
)

func wordAt(addr uintptr) *uintptr {
	return (*uintptr)(unsafe.Pointer(addr)) //nolint:gosec // raw header access is the core of the allocator
}

func loadWord(addr uintptr) uintptr      { return *wordAt(addr) }
func storeWord(addr uintptr, v uintptr)  { *wordAt(addr) = v }
func word1Addr(header uintptr) uintptr   { return header + unsafe.Sizeof(uintptr(0)) }
func loadWord1(header uintptr) uintptr   { return loadWord(word1Addr(header)) }
func storeWord1(header, v uintptr)       { storeWord(word1Addr(header), v) }

// userAddr returns the user-visible pointer for a block whose real or fake
// header starts at headerAddr.
func userAddr(headerAddr uintptr) uintptr { return headerAddr + HeaderSize }

// headerFromUser recovers the starting address of whatever header
// (fake-then-real, or just real) precedes a user pointer, following the
// fake-header offset if present. It returns the real header address, the
// alignment recorded by a fake header (or WordAlign if there was none),
// and whether a fake header was present.
func headerFromUser(p uintptr) (real uintptr, alignment uintptr, hadFake bool) {
	candidate := p - HeaderSize
	w0 := loadWord(candidate)

	if w0&stickyFake != 0 {
		alignment = w0 &^ stickyFake
		offset := loadWord1(candidate)

		return candidate - offset, alignment, true
	}

	return candidate, WordAlign, false
}

// isMapped reports whether a real header's word0 carries the large-mapped
// sticky bit.
func isMapped(word0 uintptr) bool { return word0&stickyMapped != 0 }

// isZeroFilled reports whether a real header's word0 carries the
// zero-filled sticky bit.
func isZeroFilled(word0 uintptr) bool { return word0&stickyZero != 0 }

// clearSticky strips the three sticky bits from a header word, leaving the
// home pointer / munmap size / next-free link it carries.
func clearSticky(word0 uintptr) uintptr { return word0 & stickyInverse }

// realHeaderWord0 / setRealHeaderWord0 read and write a real header's
// tagged first word.
func realHeaderWord0(h uintptr) uintptr          { return loadWord(h) }
func setRealHeaderWord0(h uintptr, v uintptr)    { storeWord(h, v) }
func realHeaderSize(h uintptr) uintptr           { return loadWord1(h) }
func setRealHeaderSize(h uintptr, n uintptr)     { storeWord1(h, n) }

// writeBucketedHeader initializes a real header for a fresh bucketed
// block: home points at the owning freeListHeader, size is the requested
// user size, and sticky bits reflect zero-fill only (never mapped).
func writeBucketedHeader(h uintptr, home uintptr, size uintptr, zeroFilled bool) {
	w0 := home
	if zeroFilled {
		w0 |= stickyZero
	}

	setRealHeaderWord0(h, w0)
	setRealHeaderSize(h, size)
}

// writeMappedHeader initializes a real header for a large mapped block.
func writeMappedHeader(h uintptr, mappedTotal uintptr, requested uintptr, zeroFilled bool) {
	w0 := mappedTotal | stickyMapped
	if zeroFilled {
		w0 |= stickyZero
	}

	setRealHeaderWord0(h, w0)
	setRealHeaderSize(h, requested)
}

// writeFakeHeader installs a fake header at fakeAddr pointing back at a
// real header realAddr, recording alignment.
func writeFakeHeader(fakeAddr, realAddr, alignment uintptr) {
	storeWord(fakeAddr, alignment|stickyFake)
	storeWord1(fakeAddr, fakeAddr-realAddr)
}

// homeOf returns the address of a freeListHeader to be recorded as a
// bucketed block's home pointer in its real header's word0.
func homeOf(fl *freeListHeader) uintptr { return uintptr(unsafe.Pointer(fl)) }

// homeToBucket recovers the freeListHeader a home pointer refers to.
func homeToBucket(home uintptr) *freeListHeader {
	return (*freeListHeader)(unsafe.Pointer(home)) //nolint:gosec // home always references a live freeListHeader embedded in a permanently reachable Heap
}

// copyMemory copies n bytes from src to dst, both user addresses.
func copyMemory(dst, src, n uintptr) {
	d := unsafe.Slice((*byte)(unsafe.Pointer(dst)), n) //nolint:gosec // moving a live user span during resize/realloc
	s := unsafe.Slice((*byte)(unsafe.Pointer(src)), n) //nolint:gosec
	copy(d, s)
}

// zeroFill zeros n bytes starting at addr, used to satisfy the zero-fill
// guarantee of the calloc-style entry points on the bucketed fast path
// (mmap'd pages are already zero, so the mapped path never calls this).
func zeroFill(addr, n uintptr) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n) //nolint:gosec // writing into the freshly returned user span
	for i := range b {
		b[i] = 0
	}
}
