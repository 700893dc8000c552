package llheap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mapAnonymous reserves a fresh, zeroed, private anonymous mapping of n
// bytes (n must already be a multiple of the page size) and returns its
// base address. The returned memory is never touched by the Go GC: it is
// page-table backed OS memory, which is exactly what lets block headers
// store raw uintptr addresses into it for the lifetime of the process.
func mapAnonymous(n uintptr) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, err
	}

	return uintptr(unsafe.Pointer(&b[0])), nil
}

// unmapAnonymous releases a mapping previously obtained from mapAnonymous
// (or from the large-block path, which also uses mapAnonymous directly).
func unmapAnonymous(base, n uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), n) //nolint:gosec // reconstructing the mmap'd span to hand back to munmap
	return unix.Munmap(b)
}
