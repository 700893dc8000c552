//go:build !llheap_debug

package llheap

// debugCheckFree is a no-op in release builds; see debug.go.
func debugCheckFree(h *Heap, real uintptr) {}

// ReportLeaks is a no-op in release builds; see debug.go.
func ReportLeaks(m *HeapMaster) error { return nil }
