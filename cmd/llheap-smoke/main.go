// Command llheap-smoke is a small interactive driver over pkg/malloc,
// useful for poking at the allocator by hand; it is not a benchmark or
// conformance-test harness.
package main

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/llheap-go/llheap/internal/cli"
	"github.com/llheap-go/llheap/pkg/malloc"
)

var commands = []cli.CommandInfo{
	{Name: "alloc", Description: "allocate and immediately free N bytes, M times"},
	{Name: "stats", Description: "print current allocator statistics"},
	{Name: "version", Description: "print version information"},
}

func main() {
	args := os.Args[1:]

	jsonOutput := false
	verbose := false

	filtered := args[:0]

	for _, a := range args {
		switch a {
		case "--json":
			jsonOutput = true
		case "--verbose":
			verbose = true
		case "--help", "-h":
			cli.PrintUsage("llheap-smoke", commands)
			return
		case "--version", "-v":
			cli.PrintVersion("llheap-smoke", jsonOutput)
			return
		default:
			filtered = append(filtered, a)
		}
	}

	args = filtered
	logger := cli.NewLogger(verbose, verbose)

	if err := cli.ValidateArgs(args, 1, "llheap-smoke <alloc|stats|version> [N] [M]"); err != nil {
		cli.HandleError(err, logger)
	}

	switch args[0] {
	case "version":
		cli.PrintVersion("llheap-smoke", jsonOutput)
	case "stats":
		runStats()
	case "alloc":
		n, m := 64, 1000
		if len(args) > 1 {
			fmt.Sscanf(args[1], "%d", &n)
		}

		if len(args) > 2 {
			fmt.Sscanf(args[2], "%d", &m)
		}

		runAlloc(logger, uintptr(n), m)
	default:
		cli.ExitWithError("unknown command %q", args[0])
	}
}

func runAlloc(logger *cli.Logger, n uintptr, iterations int) {
	for i := 0; i < iterations; i++ {
		p, err := malloc.Allocate(n)
		if err != nil {
			cli.ExitWithError("allocate: %v", err)
		}

		logger.Debug("allocated %d bytes at %p", n, p)

		b := unsafe.Slice((*byte)(p), n)
		for j := range b {
			b[j] = byte(j)
		}

		if err := malloc.Free(p); err != nil {
			cli.ExitWithError("free: %v", err)
		}
	}

	logger.Info("completed %d alloc/free cycles of %d bytes", iterations, n)
	runStats()
}

func runStats() {
	if err := malloc.PrintStats(); err != nil {
		cli.ExitWithError("print_stats: %v", err)
	}
}
