package llheap

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Acquire hands the caller a Heap handle, reusing a previously Released one
// when available. This is the portable, primary replacement for spec.md
// §2's "per-OS-thread heap manager, created on first use and destroyed by
// a TLS destructor at thread exit": Go has neither TLS nor thread-exit
// hooks, so ownership of a Heap is made explicit instead of implicit. See
// SPEC_FULL.md's redesign note.
func Acquire(m *HeapMaster) *Heap { return m.getHeap() }

// Release returns h to its master's free-handle pool. h must not be used
// again afterward except by a future Acquire/Current call that happens to
// reclaim it, per spec.md's thread-reuse scenario: a reused handle inherits
// whatever the previous owner left in its bucketed free lists.
func (h *Heap) Release() { h.master.releaseHeap(h) }

// currentRegistry maps an OS thread id (Linux gettid, via x/sys/unix) to
// the Heap it has bound. Current is a best-effort convenience layered on
// top of Acquire/Release: it approximates the original's per-OS-thread
// binding as closely as Go's runtime allows, by keying on the real kernel
// thread id rather than on a goroutine, which Go does not expose an id
// for. Callers that migrate across OS threads between calls (any goroutine
// that has not called runtime.LockOSThread) may transparently observe a
// different Heap on a later call; Acquire/Release remain the only
// entry points with a precise handle lifetime.
type currentRegistry struct {
	mu   sync.Mutex
	byID map[int]*Heap
}

var currentHeaps = currentRegistry{byID: make(map[int]*Heap)}

// Current returns the calling OS thread's bound Heap, acquiring one from m
// on first use. The caller should have called runtime.LockOSThread if it
// needs the binding to remain valid for the rest of its use of the
// returned handle; without that, a goroutine rescheduled onto a different
// OS thread simply binds (or finds already bound) a different Heap, which
// is safe but defeats the locality Current is meant to provide.
func Current(m *HeapMaster) *Heap {
	tid := unix.Gettid()

	currentHeaps.mu.Lock()
	defer currentHeaps.mu.Unlock()

	if h, ok := currentHeaps.byID[tid]; ok {
		return h
	}

	h := Acquire(m)
	currentHeaps.byID[tid] = h

	return h
}

// ReleaseCurrent releases and forgets the calling OS thread's bound Heap,
// if any. A host program's thread-exit cleanup (there being no portable
// Go equivalent of a pthread TLS destructor) is expected to call this
// explicitly before the OS thread is retired.
func ReleaseCurrent() {
	tid := unix.Gettid()

	currentHeaps.mu.Lock()
	h, ok := currentHeaps.byID[tid]
	if ok {
		delete(currentHeaps.byID, tid)
	}
	currentHeaps.mu.Unlock()

	if ok {
		h.Release()
	}
}
