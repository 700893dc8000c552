package llheap

import (
	"runtime"
	"sync/atomic"
)

// spinlock is a short-critical-section mutex with exponential backoff,
// capped to avoid pathological contention. spec.md §4.1/§5 requires the
// region-extension and heap-manager-pool locks to never be held across a
// blocking syscall and to use plain spinning rather than a scheduler-aware
// mutex, so this is a TAS spinlock rather than sync.Mutex.
//
// Grounded on the CAS-retry-with-Gosched-backoff shape used throughout the
// retrieval pack's lock-free structures (e.g. the MPSC ring buffer in
// other_examples' lockfree_queue.go) and on sync.Mutex's own state field
// being a bare int32 with no pointers, which keeps spinlock safe to embed
// in structures that must never move.
type spinlock struct {
	state uint32
}

const spinBackoffCap = 64

func (s *spinlock) Lock() {
	backoff := 1
	for !atomic.CompareAndSwapUint32(&s.state, 0, 1) {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < spinBackoffCap {
			backoff *= 2
		}
	}
}

func (s *spinlock) Unlock() {
	atomic.StoreUint32(&s.state, 0)
}

func (s *spinlock) TryLock() bool {
	return atomic.CompareAndSwapUint32(&s.state, 0, 1)
}
