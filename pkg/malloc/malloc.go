// Package malloc is the thin, process-wide public surface spec.md §6
// describes: a set of malloc/free-shaped entry points, each a direct
// pass-through to the calling OS thread's internal/llheap.Heap (obtained
// via llheap.Current), tagged with the package-wide statistics aggregate.
// Callers that want an explicit, non-global handle (tests, anything
// embedding more than one allocator instance) should use internal/llheap
// directly instead.
package malloc

import (
	"unsafe"

	"github.com/llheap-go/llheap/internal/llheap"
	"github.com/llheap-go/llheap/internal/statsio"
)

var master = llheap.New()

// Master returns the package-wide HeapMaster backing every function in
// this package, for callers that need direct access to Configure,
// SetStatsFD, or WatchConfigFile.
func Master() *llheap.HeapMaster { return master }

func current() *llheap.Heap { return llheap.Current(master) }

func toPointer(addr uintptr, err error) (unsafe.Pointer, error) {
	if err != nil {
		return nil, err
	}

	return unsafe.Pointer(addr), nil //nolint:gosec // handing a raw allocator address to the caller is the point of this package
}

// Allocate is spec.md §6's allocate.
func Allocate(n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().Allocate(n))
}

// AllocateArray is spec.md §6's allocate_array.
func AllocateArray(dim, elemSize uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AllocateArray(dim, elemSize))
}

// AllocateZeroed is spec.md §6's allocate_zeroed.
func AllocateZeroed(n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AllocateZeroed(n))
}

// AllocateZeroedArray is spec.md §6's allocate_zeroed_array.
func AllocateZeroedArray(dim, elemSize uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AllocateZeroedArray(dim, elemSize))
}

// AlignedAllocate is spec.md §6's aligned_allocate.
func AlignedAllocate(alignment, n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AlignedAllocate(alignment, n))
}

// AlignedAllocateArray is spec.md §6's aligned_allocate_array.
func AlignedAllocateArray(alignment, dim, elemSize uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AlignedAllocateArray(alignment, dim, elemSize))
}

// AlignedAllocateZeroed is spec.md §6's aligned_allocate_zeroed.
func AlignedAllocateZeroed(alignment, n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AlignedAllocateZeroed(alignment, n))
}

// Resize is spec.md §6's resize.
func Resize(p unsafe.Pointer, n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().Resize(uintptr(p), n))
}

// ResizeArray is spec.md §6's resize_array.
func ResizeArray(p unsafe.Pointer, dim, elemSize uintptr) (unsafe.Pointer, error) {
	return toPointer(current().ResizeArray(uintptr(p), dim, elemSize))
}

// Reallocate is spec.md §6's reallocate.
func Reallocate(p unsafe.Pointer, n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().Reallocate(uintptr(p), n))
}

// ReallocateArray is spec.md §6's reallocate_array.
func ReallocateArray(p unsafe.Pointer, dim, elemSize uintptr) (unsafe.Pointer, error) {
	return toPointer(current().ReallocateArray(uintptr(p), dim, elemSize))
}

// AlignedResize is spec.md §6's aligned_resize.
func AlignedResize(p unsafe.Pointer, alignment, n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AlignedResize(uintptr(p), alignment, n))
}

// AlignedReallocate is spec.md §6's aligned_reallocate.
func AlignedReallocate(p unsafe.Pointer, alignment, n uintptr) (unsafe.Pointer, error) {
	return toPointer(current().AlignedReallocate(uintptr(p), alignment, n))
}

// Free is spec.md §6's free. Free(nil) is a no-op.
func Free(p unsafe.Pointer) error {
	return current().Free(uintptr(p))
}

// QuerySize is spec.md §6's query_size.
func QuerySize(p unsafe.Pointer) uintptr { return current().QuerySize(uintptr(p)) }

// QueryUsableSize is spec.md §6's query_usable_size.
func QueryUsableSize(p unsafe.Pointer) uintptr { return current().QueryUsableSize(uintptr(p)) }

// QueryAlignment is spec.md §6's query_alignment.
func QueryAlignment(p unsafe.Pointer) uintptr { return current().QueryAlignment(uintptr(p)) }

// QueryZeroFilled is spec.md §6's query_zero_fill.
func QueryZeroFilled(p unsafe.Pointer) bool { return current().QueryZeroFilled(uintptr(p)) }

// QueryRemote is SPEC_FULL.md's supplemented query_remote.
func QueryRemote(p unsafe.Pointer) bool { return current().QueryRemote(uintptr(p)) }

// ConfigureExtendAmount is spec.md §6's configure(extend_amount, value).
func ConfigureExtendAmount(value uintptr) error {
	return master.Configure(llheap.ConfigExtendAmount, value)
}

// ConfigureMmapCrossover is spec.md §6's configure(mmap_start, value).
func ConfigureMmapCrossover(value uintptr) error {
	return master.Configure(llheap.ConfigMmapCrossover, value)
}

// SetStatsFD is spec.md §6's set_stats_fd.
func SetStatsFD(fd int) { master.SetStatsFD(fd) }

// Stats is spec.md §6's implicit read of the process-wide counters
// print_stats/print_stats_xml report.
func Stats() llheap.Stats { return master.Stats() }

// ClearStats is spec.md §6's clear_stats.
func ClearStats() { master.ResetStats() }

// PrintStats is spec.md §6's print_stats, writing to the configured
// stats file descriptor.
func PrintStats() error { return statsio.PrintStats(master.StatsFD(), Stats()) }

// PrintStatsXML is spec.md §6's print_stats_xml.
func PrintStatsXML() error { return statsio.PrintStatsXML(master.StatsFD(), Stats()) }
