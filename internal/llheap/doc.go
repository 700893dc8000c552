// Package llheap implements the core of a multi-threaded, bucketed memory
// allocator: a per-goroutine-handle sub-allocator backed by a shared,
// growing program region, with a protocol for returning foreign-handle
// frees to the owning heap.
//
// The package is organized leaves-first, mirroring the three layers of the
// design: a region provider that carves aligned bytes from an mmap'd arena
// (region.go), a heap-master singleton that owns the region and a pool of
// heap managers (master.go), and per-handle heap managers that own bucketed
// free lists and a bump-allocation reserve (heap.go). Allocation, free,
// resize, realloc, and aligned-allocate are implemented on top of that data
// model in alloc.go, free.go, resize.go, and aligned.go respectively.
//
// Callers obtain a handle with Acquire (or the best-effort Current) and use
// it for every allocation/free pair on a given logical thread of execution.
package llheap
