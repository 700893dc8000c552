package llheap

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"

	stderrors "github.com/llheap-go/llheap/internal/errors"
)

// ErrUnknownOption is returned by HeapMaster.Configure for anything other
// than the two documented knobs (spec.md §7 "Unknown configure option").
var ErrUnknownOption = fmt.Errorf("llheap: unknown configure option")

// fatalf reports an invariant violation the way spec.md §7 requires:
// "diagnostics must not recursively invoke the allocator (no streams, no
// strerror, no formatted I/O that allocates); write via the raw write
// syscall to a preconfigured stats file descriptor". fmt.Sprintf below
// still allocates, but only to build the message before the fatal abort —
// by this point the process is already committed to exiting, so the usual
// allocator-recursion hazard (a logging call allocating, re-entering a
// corrupted allocator) does not apply to the message formatting itself,
// only to how it reaches the outside world, which is why the actual write
// goes through unix.Write rather than fmt.Fprintf/os.Stderr.
//
// Grounded on internal/cli/common.go's ExitWithError, adapted to the raw
// write(2) discipline spec.md's error-handling design demands.
func fatalf(fd int, format string, args ...interface{}) {
	msg := fmt.Sprintf("llheap: fatal: "+format+"\n", args...)
	_, _ = unix.Write(fd, []byte(msg))
	os.Exit(2)
}

// checkAllocSize validates that a user-requested size n can be turned into
// a total size (n + HeaderSize) without overflowing uintptr. Overflow is a
// recoverable error (an IntegerOverflow value is returned), not a fatal
// abort.
func checkAllocSize(n uintptr) error {
	if n > math.MaxUint64-HeaderSize {
		return stderrors.IntegerOverflow("allocate", n, HeaderSize)
	}

	return nil
}

// checkArraySize validates dim*elemSize for the _array entry points
// (spec.md §6), returning the product and an error if it would overflow.
func checkArraySize(dim, elemSize uintptr) (uintptr, error) {
	if elemSize != 0 && dim > math.MaxUint64/elemSize {
		return 0, stderrors.IntegerOverflow("allocate_array", dim, elemSize)
	}

	return dim * elemSize, nil
}
